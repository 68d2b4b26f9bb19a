package deliverable

import (
	"fmt"
	"net/url"
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// Type is the kind of work product attached to a booking.
type Type string

const (
	TypePhotoSet        Type = "photo_set"
	TypeAppraisalReport Type = "appraisal_report"
	TypeVideoTour       Type = "video_tour"
)

// IsValid returns true if the deliverable type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypePhotoSet, TypeAppraisalReport, TypeVideoTour:
		return true
	}
	return false
}

// Deliverable is a file a provider hands over for a booking.
type Deliverable struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	providerID  uuid.UUID
	kind        Type
	url         string
	caption     string
	deliveredAt time.Time
	createdAt   time.Time
}

// NewDeliverable creates a deliverable for a booking.
func NewDeliverable(bookingID, providerID uuid.UUID, kind Type, fileURL, caption string) (*Deliverable, error) {
	if !kind.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid deliverable type: %s", kind))
	}
	u, err := url.Parse(fileURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, domain.NewValidationError("url must be an absolute http(s) URL")
	}

	now := time.Now().UTC()
	return &Deliverable{
		id:          uuid.New(),
		bookingID:   bookingID,
		providerID:  providerID,
		kind:        kind,
		url:         fileURL,
		caption:     caption,
		deliveredAt: now,
		createdAt:   now,
	}, nil
}

// Reconstruct rebuilds a Deliverable from persistence.
func Reconstruct(id, bookingID, providerID uuid.UUID, kind Type, fileURL, caption string, deliveredAt, createdAt time.Time) *Deliverable {
	return &Deliverable{
		id:          id,
		bookingID:   bookingID,
		providerID:  providerID,
		kind:        kind,
		url:         fileURL,
		caption:     caption,
		deliveredAt: deliveredAt,
		createdAt:   createdAt,
	}
}

// Getters.
func (d *Deliverable) ID() uuid.UUID          { return d.id }
func (d *Deliverable) BookingID() uuid.UUID   { return d.bookingID }
func (d *Deliverable) ProviderID() uuid.UUID  { return d.providerID }
func (d *Deliverable) Type() Type             { return d.kind }
func (d *Deliverable) URL() string            { return d.url }
func (d *Deliverable) Caption() string        { return d.caption }
func (d *Deliverable) DeliveredAt() time.Time { return d.deliveredAt }
func (d *Deliverable) CreatedAt() time.Time   { return d.createdAt }
