// Package dispatch runs the best-effort side effects of booking changes
// outside the request path.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task types.
const (
	TypeNotification  = "booking:notify"
	TypeSubjectStatus = "booking:subject_status"
)

// Task is a serialized unit of side-effect work.
type Task struct {
	Type    string
	Payload json.RawMessage
}

// Queue accepts tasks for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
}

// Notification asks the relay to tell a provider about a booking.
type Notification struct {
	Template       string    `json:"template"`
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	ProviderID     uuid.UUID `json:"provider_id"`
	ProviderName   string    `json:"provider_name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start"`
	Location       string    `json:"location,omitempty"`
}

// SubjectStatusUpdate asks for a lead or property record to be moved to
// a new status.
type SubjectStatusUpdate struct {
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Status      string    `json:"status"`
	BookingID   uuid.UUID `json:"booking_id"`
}

// NewNotificationTask wraps n in a Task.
func NewNotificationTask(n Notification) (Task, error) {
	return newTask(TypeNotification, n)
}

// NewSubjectStatusTask wraps u in a Task.
func NewSubjectStatusTask(u SubjectStatusUpdate) (Task, error) {
	return newTask(TypeSubjectStatus, u)
}

func newTask(taskType string, v interface{}) (Task, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Task{}, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return Task{Type: taskType, Payload: payload}, nil
}
