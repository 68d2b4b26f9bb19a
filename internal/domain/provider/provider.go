package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// Kind is the service a provider sells.
type Kind string

const (
	KindPhotographer Kind = "photographer"
	KindAppraiser    Kind = "appraiser"
)

// IsValid returns true if the kind is recognized.
func (k Kind) IsValid() bool {
	return k == KindPhotographer || k == KindAppraiser
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if !k.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid provider kind: %s", s))
	}
	return k, nil
}

// Provider is the aggregate root for a bookable photographer or appraiser.
type Provider struct {
	id              uuid.UUID
	userID          uuid.UUID
	kind            Kind
	name            string
	email           string
	phone           string
	rating          float64
	ratingCount     int
	serviceAreas    []string
	hourlyRateCents int64
	isActive        bool
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
}

// Profile is the editable part of a provider.
type Profile struct {
	Name            string
	Email           string
	Phone           string
	ServiceAreas    []string
	HourlyRateCents int64
}

// NewProvider creates an active provider with validated fields.
func NewProvider(userID uuid.UUID, kind Kind, profile Profile) (*Provider, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if !kind.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid provider kind: %s", kind))
	}
	if strings.TrimSpace(profile.Name) == "" {
		return nil, domain.NewValidationError("provider name is required")
	}
	if profile.HourlyRateCents < 0 {
		return nil, domain.NewValidationError("hourly rate cannot be negative")
	}

	now := time.Now().UTC()
	return &Provider{
		id:              uuid.New(),
		userID:          userID,
		kind:            kind,
		name:            strings.TrimSpace(profile.Name),
		email:           profile.Email,
		phone:           profile.Phone,
		serviceAreas:    normalizeAreas(profile.ServiceAreas),
		hourlyRateCents: profile.HourlyRateCents,
		isActive:        true,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds a Provider from persistence data (no validation).
func Reconstruct(
	id, userID uuid.UUID,
	kind Kind,
	name, email, phone string,
	rating float64,
	ratingCount int,
	serviceAreas []string,
	hourlyRateCents int64,
	isActive bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Provider {
	return &Provider{
		id:              id,
		userID:          userID,
		kind:            kind,
		name:            name,
		email:           email,
		phone:           phone,
		rating:          rating,
		ratingCount:     ratingCount,
		serviceAreas:    serviceAreas,
		hourlyRateCents: hourlyRateCents,
		isActive:        isActive,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

func (p *Provider) ID() uuid.UUID          { return p.id }
func (p *Provider) UserID() uuid.UUID      { return p.userID }
func (p *Provider) Kind() Kind             { return p.kind }
func (p *Provider) Name() string           { return p.name }
func (p *Provider) Email() string          { return p.email }
func (p *Provider) Phone() string          { return p.phone }
func (p *Provider) Rating() float64        { return p.rating }
func (p *Provider) RatingCount() int       { return p.ratingCount }
func (p *Provider) ServiceAreas() []string { return p.serviceAreas }
func (p *Provider) HourlyRateCents() int64 { return p.hourlyRateCents }
func (p *Provider) IsActive() bool         { return p.isActive }
func (p *Provider) Version() int64         { return p.version }
func (p *Provider) CreatedAt() time.Time   { return p.createdAt }
func (p *Provider) UpdatedAt() time.Time   { return p.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the profile belongs to the given user.
func (p *Provider) IsOwnedBy(userID uuid.UUID) bool {
	return p.userID == userID
}

// Update applies partial updates. Empty fields are left unchanged; a
// non-nil ServiceAreas slice replaces the areas.
func (p *Provider) Update(profile Profile) error {
	if profile.HourlyRateCents < 0 {
		return domain.NewValidationError("hourly rate cannot be negative")
	}
	if name := strings.TrimSpace(profile.Name); name != "" {
		p.name = name
	}
	if profile.Email != "" {
		p.email = profile.Email
	}
	if profile.Phone != "" {
		p.phone = profile.Phone
	}
	if profile.ServiceAreas != nil {
		p.serviceAreas = normalizeAreas(profile.ServiceAreas)
	}
	if profile.HourlyRateCents > 0 {
		p.hourlyRateCents = profile.HourlyRateCents
	}
	p.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate removes the provider from assignment.
func (p *Provider) Deactivate() {
	p.isActive = false
	p.updatedAt = time.Now().UTC()
}

// Activate returns the provider to assignment.
func (p *Provider) Activate() {
	p.isActive = true
	p.updatedAt = time.Now().UTC()
}

// RecordRating folds a 1..5 score into the running average.
func (p *Provider) RecordRating(score int) error {
	if score < 1 || score > 5 {
		return domain.NewValidationError("rating must be between 1 and 5")
	}
	total := p.rating*float64(p.ratingCount) + float64(score)
	p.ratingCount++
	p.rating = total / float64(p.ratingCount)
	p.updatedAt = time.Now().UTC()
	return nil
}

// ServesArea reports whether location matches one of the service areas.
// Matching is case-insensitive substring containment in either direction,
// so "Giza" matches "6th of October, Giza" and vice versa.
func (p *Provider) ServesArea(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return false
	}
	for _, area := range p.serviceAreas {
		a := strings.ToLower(area)
		if a == "" {
			continue
		}
		if strings.Contains(a, loc) || strings.Contains(loc, a) {
			return true
		}
	}
	return false
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Provider) IncrementVersion() {
	p.version++
}

func normalizeAreas(areas []string) []string {
	out := make([]string, 0, len(areas))
	seen := make(map[string]bool, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
