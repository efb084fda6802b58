// Package sweeper runs the periodic maintenance passes of the feedback
// service: flipping lapsed projects to expired and deleting screenshot blobs
// no comment row references anymore.
package sweeper

import (
	"log"
	"time"

	"github.com/jonathanvouilloz/extensionReview/internal/services"
)

// Sweeper periodically expires lapsed projects and removes orphan screenshot
// blobs. The request path never waits on it; expiry is also enforced lazily
// on every project read.
type Sweeper struct {
	feedback *services.FeedbackService
	interval time.Duration
}

// NewSweeper creates and returns a new instance of Sweeper.
// interval determines how frequently the maintenance passes run.
func NewSweeper(feedback *services.FeedbackService, interval time.Duration) *Sweeper {
	return &Sweeper{
		feedback: feedback,
		interval: interval,
	}
}

// Start launches the periodic maintenance loop.
// This is a blocking function that runs indefinitely until the program stops.
func (s *Sweeper) Start() {
	log.Printf("[SWEEP] Starting maintenance sweeper with interval of %v...", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Execute an immediate pass on startup before waiting for the first tick
	s.RunOnce()

	for range ticker.C {
		s.RunOnce()
	}
}

// RunOnce executes a single maintenance pass. Each sweep logs its own
// failures and never aborts the other.
func (s *Sweeper) RunOnce() {
	expired, err := s.feedback.SweepExpired()
	if err != nil {
		log.Printf("[SWEEP] ERROR expiring lapsed projects: %v", err)
	} else if expired > 0 {
		log.Printf("[SWEEP] Flipped %d project(s) to expired", expired)
	}

	orphans, err := s.feedback.SweepOrphanBlobs()
	if err != nil {
		log.Printf("[SWEEP] ERROR sweeping orphan screenshots: %v", err)
	} else if orphans > 0 {
		log.Printf("[SWEEP] Removed %d orphan screenshot(s)", orphans)
	}
}
