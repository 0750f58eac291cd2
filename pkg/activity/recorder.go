package activity

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Recorder appends entries on behalf of mutations that must not fail
// because the audit trail is unavailable.
type Recorder struct {
	store Store
	log   logrus.FieldLogger
}

// NewRecorder creates a Recorder. A nil store records nothing.
func NewRecorder(store Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends e, logging failures at warn level.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.store == nil {
		return
	}
	if _, err := r.store.Append(ctx, e); err != nil {
		r.log.WithFields(logrus.Fields{
			"event":     e.Type,
			"workspace": e.WorkspaceID,
			"task":      e.TaskID,
		}).WithError(err).Warn("activity append failed")
	}
}

// Store returns the underlying store.
func (r *Recorder) Store() Store {
	if r == nil {
		return nil
	}
	return r.store
}
