package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Notifier delivers provider notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// SubjectUpdater writes status changes to lead and property records.
type SubjectUpdater interface {
	UpdateSubjectStatus(ctx context.Context, u SubjectStatusUpdate) error
}

// ErrSkipRetry marks a task that must not be retried.
var ErrSkipRetry = errors.New("skip retry")

// Processor executes tasks against the external collaborators.
type Processor struct {
	notifier Notifier
	subjects SubjectUpdater
	logger   *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(notifier Notifier, subjects SubjectUpdater, logger *zap.Logger) *Processor {
	return &Processor{notifier: notifier, subjects: subjects, logger: logger}
}

// Process runs a single task. Malformed payloads are wrapped in ErrSkipRetry.
func (p *Processor) Process(ctx context.Context, task Task) error {
	switch task.Type {
	case TypeNotification:
		var n Notification
		if err := json.Unmarshal(task.Payload, &n); err != nil {
			return fmt.Errorf("decode notification: %v: %w", err, ErrSkipRetry)
		}
		if err := p.notifier.Notify(ctx, n); err != nil {
			return fmt.Errorf("notify provider %s: %w", n.ProviderID, err)
		}
		p.logger.Info("notification dispatched",
			zap.String("booking_id", n.BookingID.String()),
			zap.String("template", n.Template),
		)
		return nil

	case TypeSubjectStatus:
		var u SubjectStatusUpdate
		if err := json.Unmarshal(task.Payload, &u); err != nil {
			return fmt.Errorf("decode subject update: %v: %w", err, ErrSkipRetry)
		}
		if err := p.subjects.UpdateSubjectStatus(ctx, u); err != nil {
			return fmt.Errorf("update %s %s: %w", u.SubjectType, u.SubjectID, err)
		}
		p.logger.Info("subject status propagated",
			zap.String("subject_type", u.SubjectType),
			zap.String("subject_id", u.SubjectID.String()),
			zap.String("status", u.Status),
		)
		return nil

	default:
		return fmt.Errorf("unknown task type %q: %w", task.Type, ErrSkipRetry)
	}
}
