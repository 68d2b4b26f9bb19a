package booking

import (
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/google/uuid"
)

// SubjectKind tells which record a booking is about.
type SubjectKind string

const (
	SubjectLead     SubjectKind = "lead"
	SubjectProperty SubjectKind = "property"
)

// Subject is either a lead or a property, never both. The zero value is
// invalid.
type Subject struct {
	kind SubjectKind
	id   uuid.UUID
}

// LeadSubject returns a subject pointing at a lead.
func LeadSubject(id uuid.UUID) Subject { return Subject{kind: SubjectLead, id: id} }

// PropertySubject returns a subject pointing at a property.
func PropertySubject(id uuid.UUID) Subject { return Subject{kind: SubjectProperty, id: id} }

// SubjectFromRefs builds a Subject from two optional references, exactly one
// of which must be set.
func SubjectFromRefs(leadID, propertyID *uuid.UUID) (Subject, error) {
	hasLead := leadID != nil && *leadID != uuid.Nil
	hasProperty := propertyID != nil && *propertyID != uuid.Nil
	switch {
	case hasLead && hasProperty:
		return Subject{}, domain.NewValidationError("booking must reference either a lead or a property, not both")
	case hasLead:
		return LeadSubject(*leadID), nil
	case hasProperty:
		return PropertySubject(*propertyID), nil
	default:
		return Subject{}, domain.NewValidationError("booking must reference a lead or a property")
	}
}

func (s Subject) Kind() SubjectKind { return s.kind }
func (s Subject) ID() uuid.UUID     { return s.id }

// IsZero reports whether the subject is unset.
func (s Subject) IsZero() bool { return s.kind == "" || s.id == uuid.Nil }

// LeadID returns the lead reference, or nil for property subjects.
func (s Subject) LeadID() *uuid.UUID {
	if s.kind != SubjectLead {
		return nil
	}
	id := s.id
	return &id
}

// PropertyID returns the property reference, or nil for lead subjects.
func (s Subject) PropertyID() *uuid.UUID {
	if s.kind != SubjectProperty {
		return nil
	}
	id := s.id
	return &id
}

// CompletionStatus is the status written to the subject record when a
// booking about it completes.
func (s Subject) CompletionStatus() string {
	if s.kind == SubjectProperty {
		return "appraisal_completed"
	}
	return "photos_completed"
}
