package reviews

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yudhapratama/code-review-api/internal/application"
	domai "github.com/yudhapratama/code-review-api/internal/domain/ai"
	domain "github.com/yudhapratama/code-review-api/internal/domain/reviews"
)

// MaxUploadBytes caps the declared size of an uploaded source file.
const MaxUploadBytes = 1 << 20

// defaultSummary is stored when the model reply carries no summary key at all.
const defaultSummary = "No summary provided."

// Service implements the review use-cases.
// Stateless apart from its collaborators, so safe for concurrent use.
type Service struct {
	Repo    domain.Repository
	AI      domai.Client
	Archive domain.ArchiveStore // nil disables source archival
	Clock   application.Clock
	Log     *zap.Logger
}

// ReviewCommand carries one uploaded file into the review pipeline.
type ReviewCommand struct {
	Filename string
	Size     int64 // declared size in bytes, from the multipart header
	Code     []byte
}

// Review validates the upload, asks the model for a review, parses the reply
// and persists the resulting report. The returned report carries its
// database-assigned ID and the creation timestamp.
func (s *Service) Review(ctx context.Context, cmd ReviewCommand) (*domain.ReviewReport, error) {
	if cmd.Filename == "" {
		return nil, domain.NewInvalidInput("No file was uploaded.")
	}
	if cmd.Size > MaxUploadBytes {
		return nil, domain.NewInvalidInput("File size exceeds the limit of 1MB.")
	}
	if !utf8.Valid(cmd.Code) {
		return nil, domain.NewInvalidInput("Uploaded file is not valid UTF-8 text.")
	}

	raw, err := s.AI.Review(ctx, cmd.Filename, string(cmd.Code))
	if err != nil {
		return nil, err
	}

	payload, err := parseReview(raw)
	if err != nil {
		s.Log.Warn("model reply rejected",
			zap.String("filename", cmd.Filename),
			zap.String("raw_response", raw),
			zap.Error(err))
		return nil, err
	}

	report := &domain.ReviewReport{
		Filename:      cmd.Filename,
		Summary:       defaultSummary,
		Suggestions:   payload.Suggestions,
		PotentialBugs: payload.PotentialBugs,
		Timestamp:     s.Clock.Now().UTC().Format(time.RFC3339),
	}
	if payload.Filename != nil {
		report.Filename = *payload.Filename
	}
	if payload.Summary != nil {
		report.Summary = *payload.Summary
	}
	// Sections always persist as valid JSON mappings, never null.
	if report.Suggestions == nil {
		report.Suggestions = map[string]string{}
	}
	if report.PotentialBugs == nil {
		report.PotentialBugs = map[string]string{}
	}

	if err := s.Repo.Insert(ctx, report); err != nil {
		return nil, err
	}

	// Archival keeps a copy of the reviewed source but never fails the request.
	if s.Archive != nil {
		key := fmt.Sprintf("%d/%s", report.ID, cmd.Filename)
		if _, aerr := s.Archive.Archive(ctx, key, cmd.Code, "text/plain; charset=utf-8"); aerr != nil {
			s.Log.Warn("source archival failed", zap.String("key", key), zap.Error(aerr))
		}
	}

	return report, nil
}

// History returns every stored report, newest first.
func (s *Service) History(ctx context.Context) ([]*domain.ReviewReport, error) {
	return s.Repo.ListAll(ctx)
}

// Delete removes one report by ID.
func (s *Service) Delete(ctx context.Context, id domain.ReportID) error {
	return s.Repo.DeleteByID(ctx, id)
}
