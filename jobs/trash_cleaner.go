package jobs

import (
	"context"
	"log"
	"time"

	"stratusdrive/services"
)

// TrashCleaner purges trashed items past their retention window on a
// fixed interval.
type TrashCleaner struct {
	trashService *services.TrashService
	interval     time.Duration
	logger       *log.Logger
	stop         chan struct{}
}

func NewTrashCleaner(trashService *services.TrashService, interval time.Duration) *TrashCleaner {
	return &TrashCleaner{
		trashService: trashService,
		interval:     interval,
		logger:       log.New(log.Writer(), "[TRASH_CLEANER] ", log.LstdFlags),
		stop:         make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called. It cleans once
// immediately, then on every tick.
func (tc *TrashCleaner) Start() {
	tc.logger.Println("Starting trash cleaner job...")

	tc.runCleanup()

	ticker := time.NewTicker(tc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tc.runCleanup()
		case <-tc.stop:
			tc.logger.Println("Trash cleaner stopped")
			return
		}
	}
}

func (tc *TrashCleaner) Stop() {
	close(tc.stop)
}

func (tc *TrashCleaner) runCleanup() {
	tc.logger.Println("Running trash cleanup...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	removed, err := tc.trashService.PurgeExpired(ctx)
	if err != nil {
		tc.logger.Printf("Error purging expired trash: %v", err)
	}
	tc.logger.Printf("Trash cleanup completed. Items removed: %d", removed)
}
