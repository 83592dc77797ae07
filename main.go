package main

import (
	"log"

	"coursesync/config"
	"coursesync/database"
	"coursesync/engine"
	"coursesync/remote"
	"coursesync/routers"
	"coursesync/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()

	store, err := database.Open(config.AppConfig.DBName)
	if err != nil {
		log.Fatalf("Failed to open local replica: %v", err)
	}
	defer store.Close()

	remoteClient := remote.NewClient(config.AppConfig.RemoteApiURL, config.AppConfig.RemoteApiKey)
	eng := engine.New(store, remoteClient)

	scheduler := utils.StartSyncScheduler(eng, remoteClient, config.AppConfig.SyncIntervalMinutes)
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: int(config.AppConfig.MaxVideoSizeMB+1) * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	routers.SetupRoutes(app, store, eng)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
