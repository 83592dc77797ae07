package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursesync/engine"
	"coursesync/remote"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[SYNC-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// StartSyncScheduler probes remote reachability on a fixed interval, feeds
// the result into the engine as a connectivity signal, and runs a periodic
// replay-then-reconcile cycle while online. Returns the cron so the caller
// can stop it on shutdown.
func StartSyncScheduler(eng *engine.Engine, client *remote.Client, intervalMinutes int) *cron.Cron {
	c := cron.New()

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		wasOnline := eng.Online()
		online := client.Ping(ctx) == nil
		eng.SetOnline(ctx, online) // a transition to online already runs a cycle
		if !online || !wasOnline {
			return
		}

		if err := eng.Sync(ctx); err != nil {
			logScheduler("Periodic sync failed: " + err.Error())
		}
	})
	if err != nil {
		logScheduler("Failed to register sync job: " + err.Error())
		return c
	}

	c.Start()
	logScheduler(fmt.Sprintf("Sync scheduler started, interval %dm", intervalMinutes))
	return c
}
