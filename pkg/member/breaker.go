package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker around a Directory.
type BreakerSettings struct {
	MaxRequests         uint32
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// BreakerDirectory guards a Directory with a circuit breaker so a failing
// member backend fails enrichment fast instead of stalling every listing.
type BreakerDirectory struct {
	next Directory
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerDirectory wraps next.
func NewBreakerDirectory(next Directory, settings BreakerSettings, log logrus.FieldLogger) *BreakerDirectory {
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "member-directory",
		MaxRequests: settings.MaxRequests,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
		// A caller giving up is not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	return &BreakerDirectory{next: next, cb: cb}
}

// FindByIDs delegates to the wrapped directory unless the breaker is open.
func (d *BreakerDirectory) FindByIDs(ctx context.Context, workspaceID string, ids []string) ([]Member, error) {
	out, err := d.cb.Execute(func() (interface{}, error) {
		return d.next.FindByIDs(ctx, workspaceID, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("member directory: %w", err)
	}
	return out.([]Member), nil
}

// State reports the breaker state, for status endpoints.
func (d *BreakerDirectory) State() string {
	return d.cb.State().String()
}
