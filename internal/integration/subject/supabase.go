// Package subject propagates booking outcomes to lead and property records
// held in the marketplace's Supabase project.
package subject

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// Tables names the Supabase tables holding each subject kind.
type Tables struct {
	Leads      string
	Properties string
}

// SupabaseUpdater writes subject statuses through the PostgREST API.
type SupabaseUpdater struct {
	client *supa.Client
	tables Tables
	logger *zap.Logger
}

// NewSupabaseUpdater creates a client for url authenticated with the service key.
func NewSupabaseUpdater(url, serviceKey string, tables Tables, logger *zap.Logger) (*SupabaseUpdater, error) {
	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseUpdater{client: client, tables: tables, logger: logger}, nil
}

func (s *SupabaseUpdater) table(subjectType string) (string, error) {
	switch subjectType {
	case "lead":
		return s.tables.Leads, nil
	case "property":
		return s.tables.Properties, nil
	default:
		return "", fmt.Errorf("unknown subject type %q: %w", subjectType, dispatch.ErrSkipRetry)
	}
}

// UpdateSubjectStatus sets the subject row's status. A missing row is not
// retried.
func (s *SupabaseUpdater) UpdateSubjectStatus(_ context.Context, u dispatch.SubjectStatusUpdate) error {
	table, err := s.table(u.SubjectType)
	if err != nil {
		return err
	}

	data, _, err := s.client.From(table).
		Update(map[string]interface{}{"status": u.Status}, "representation", "").
		Eq("id", u.SubjectID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("%s %s not found: %w", u.SubjectType, u.SubjectID, dispatch.ErrSkipRetry)
	}

	s.logger.Info("subject status updated",
		zap.String("table", table),
		zap.String("subject_id", u.SubjectID.String()),
		zap.String("status", u.Status),
	)
	return nil
}

// LogUpdater only logs subject updates. Used when Supabase is not configured.
type LogUpdater struct {
	logger *zap.Logger
}

// NewLogUpdater creates a LogUpdater.
func NewLogUpdater(logger *zap.Logger) *LogUpdater {
	return &LogUpdater{logger: logger}
}

// UpdateSubjectStatus logs u.
func (l *LogUpdater) UpdateSubjectStatus(_ context.Context, u dispatch.SubjectStatusUpdate) error {
	l.logger.Info("subject status change (no subject store configured)",
		zap.String("subject_type", u.SubjectType),
		zap.String("subject_id", u.SubjectID.String()),
		zap.String("status", u.Status),
	)
	return nil
}
