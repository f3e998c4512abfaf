package session

import (
	"context"
	"time"

	"github.com/JinFuuMugen/coinshop/internal/logger"
)

const JanitorInterval = time.Minute

// Janitor sweeps idle sessions every interval until ctx is done.
func Janitor(ctx context.Context, m *Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Infof("closed %d idle sessions, %d left", n, m.Len())
			}
		}
	}
}
