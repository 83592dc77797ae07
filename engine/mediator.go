package engine

import (
	"context"
	"log"
	"time"

	"coursesync/models"
)

// SyncStatus is the engine's observable sync state, served to the
// presentation layer for a status view and for manual queue intervention.
type SyncStatus struct {
	Online      bool                   `json:"online"`
	QueueLength int64                  `json:"queue_length"`
	FailedItems []models.SyncQueueItem `json:"failed_items"`
	LastSync    time.Time              `json:"last_sync"`
	LastError   string                 `json:"last_error,omitempty"`
}

// SetOnline records a connectivity transition. Going online triggers a full
// sync cycle; going offline is just noted, local writes keep queueing.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	was := e.online.Swap(online)
	if online == was {
		return
	}
	if !online {
		log.Println("[SYNC] Connectivity lost, queueing writes locally")
		return
	}
	log.Println("[SYNC] Connectivity restored")
	if err := e.Sync(ctx); err != nil {
		log.Printf("[SYNC] Cycle after reconnect failed: %v", err)
	}
}

// OnLogin runs a sync cycle after a successful login, so the fresh session
// starts from pushed-then-pulled state.
func (e *Engine) OnLogin(ctx context.Context) error {
	return e.Sync(ctx)
}

// Sync runs one full cycle: replay the mutation queue, then reconcile the
// remote snapshot down. The order is an invariant, not an optimization —
// pulling first could purge local-only writes the uplink has not pushed yet,
// and queued delete cascades must land before a pull could resurrect the
// deleted rows. The engine mutex serializes overlapping triggers.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.online.Load() {
		return ErrOffline
	}

	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	err := e.ProcessSyncQueue(ctx)
	if err == nil {
		err = e.SyncDown(ctx)
	}
	e.recordSyncResult(err)
	return err
}

// Status reports current connectivity, queue depth, failing items and the
// outcome of the last sync cycle.
func (e *Engine) Status() (*SyncStatus, error) {
	items, err := e.store.PendingQueue()
	if err != nil {
		return nil, err
	}
	failed := make([]models.SyncQueueItem, 0)
	for _, item := range items {
		if item.Attempts > 0 {
			failed = append(failed, item)
		}
	}

	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return &SyncStatus{
		Online:      e.online.Load(),
		QueueLength: int64(len(items)),
		FailedItems: failed,
		LastSync:    e.lastSync,
		LastError:   e.lastError,
	}, nil
}

// DiscardQueueItem drops a queue item without replaying it. This is the
// manual-intervention path for mutations that can never succeed, e.g. a
// write referencing data another client deleted server-side.
func (e *Engine) DiscardQueueItem(id uint) error {
	log.Printf("[SYNC-QUEUE] Discarding item %d by operator request", id)
	return e.store.DeleteQueueItem(id)
}
