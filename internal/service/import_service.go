package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/importer"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Created  int                `json:"created"`
	Skipped  int                `json:"skipped"`
	Warnings []importer.Warning `json:"warnings"`
}

// ImportLeads parses a CSV upload and creates one lead per usable row.
// Rows whose email already exists are skipped with a warning; the rest of
// the file still imports.
func (s *LeadService) ImportLeads(ctx context.Context, actor events.Actor, r io.Reader, charset string) (*ImportResult, error) {
	records, warnings, err := importer.Parse(r, charset)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Warnings: warnings}
	if result.Warnings == nil {
		result.Warnings = []importer.Warning{}
	}

	for _, rec := range records {
		_, err := s.CreateLead(ctx, actor, LeadCreateInput{
			Name:             rec.Name,
			Email:            rec.Email,
			Company:          rec.Company,
			Phone:            rec.Phone,
			Source:           rec.Source,
			Status:           rec.Status,
			AssignedTo:       rec.AssignedTo,
			NextFollowupDate: rec.NextFollowupDate,
			DealAmount:       rec.DealAmount,
			Probability:      rec.Probability,
		})
		if err != nil {
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				return nil, err
			}
			result.Skipped++
			result.Warnings = append(result.Warnings, importer.Warning{
				Line:    rec.Line,
				Message: fmt.Sprintf("skipped: %s", apperrors.ToDomainError(err).Message),
			})
			continue
		}
		result.Created++
	}

	s.logger.Info("lead import finished",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}
