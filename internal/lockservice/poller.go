package lockservice

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// Poll refreshes every lock once.
//
// When the session was never established (startup login failed) it logs in
// first. A failed listing is returned as-is; Poll does not retry.
func (s *Service) Poll(ctx context.Context) ([]sesame.State, error) {
	if !s.client.IsLoggedIn() {
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
	}

	states, err := s.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("polled locks", "count", len(states))
	return states, nil
}

// Run polls every interval until ctx is cancelled. A zero or negative
// interval disables polling and Run returns immediately.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("lock polling disabled")
		return
	}

	s.pollOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	if _, err := s.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("polling locks failed", "error", err)
	}
}
