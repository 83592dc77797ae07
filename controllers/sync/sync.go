package controllers

import (
	"errors"
	"strconv"

	"coursesync/engine"
	"coursesync/middleware"

	"github.com/gofiber/fiber/v2"
)

// SyncController exposes the engine's sync state to the presentation layer:
// connectivity signals from the host environment, a manual sync trigger, and
// the manual-intervention path for stuck queue items.
type SyncController struct {
	Engine *engine.Engine
}

func NewSyncController(eng *engine.Engine) *SyncController {
	return &SyncController{Engine: eng}
}

// SetConnectivity receives the host environment's online/offline signal.
// Going online kicks off a replay-then-reconcile cycle.
func (ctl *SyncController) SetConnectivity(c *fiber.Ctx) error {
	reqData := new(struct {
		Online *bool `json:"online"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Online == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	ctl.Engine.SetOnline(c.Context(), *reqData.Online)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Connectivity updated!", fiber.Map{
		"online": *reqData.Online,
	})
}

// TriggerSync runs one replay-then-reconcile cycle on demand.
func (ctl *SyncController) TriggerSync(c *fiber.Ctx) error {
	if err := ctl.Engine.Sync(c.Context()); err != nil {
		if errors.Is(err, engine.ErrOffline) {
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Client is offline!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Sync failed: "+err.Error(), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync completed successfully!", nil)
}

// GetStatus reports queue depth, failing items and the last cycle outcome.
func (ctl *SyncController) GetStatus(c *fiber.Ctx) error {
	status, err := ctl.Engine.Status()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read sync status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync status fetched successfully!", status)
}

// DiscardQueueItem drops one stuck mutation from the queue without replaying
// it.
func (ctl *SyncController) DiscardQueueItem(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid queue item id!", nil)
	}

	if err := ctl.Engine.DiscardQueueItem(uint(id)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to discard queue item!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Queue item discarded!", nil)
}
