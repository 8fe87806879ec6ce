package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// SyncService orchestrates progress reads and updates. The merge policy is
// last-writer-wins: every update fully replaces the stored record and the
// server stamps the timestamp, so concurrent devices simply race and the
// later write sticks.
type SyncService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewSyncService(repo ports.UserRepository, logger zerolog.Logger) *SyncService {
	return &SyncService{repo: repo, logger: logger, now: time.Now}
}

// UpdateProgress upserts the progress record for the (username, documentHash)
// pair. An unknown hash simply means "create"; no existing field is carried
// over into the replacement.
func (s *SyncService) UpdateProgress(ctx context.Context, username, documentHash string, input ports.ProgressInput) (*domain.Progress, error) {
	existing, err := s.repo.GetDocument(ctx, username, documentHash)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		s.logger.Debug().
			Str("username", username).
			Str("document", documentHash).
			Msg("first progress update for document")
	case err != nil:
		return nil, err
	default:
		s.logger.Debug().
			Str("username", username).
			Str("document", documentHash).
			Str("previous_device", existing.Device).
			Msg("replacing existing progress")
	}

	progress := domain.Progress{
		DocumentHash: documentHash,
		Progress:     input.Progress,
		Percentage:   input.Percentage,
		Device:       input.Device,
		DeviceID:     input.DeviceID,
		Timestamp:    s.now().UTC(),
	}

	if err := s.repo.UpsertDocument(ctx, username, progress); err != nil {
		s.logger.Error().Err(err).
			Str("username", username).
			Str("document", documentHash).
			Msg("failed to upsert progress")
		return nil, err
	}

	s.logger.Info().
		Str("username", username).
		Str("device", input.Device).
		Str("document", documentHash).
		Msg("progress updated")

	return &progress, nil
}

// GetProgress returns the current record for the pair, or
// domain.ErrDocumentNotFound if it has never been synced.
func (s *SyncService) GetProgress(ctx context.Context, username, documentHash string) (*domain.Progress, error) {
	progress, err := s.repo.GetDocument(ctx, username, documentHash)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			s.logger.Info().
				Str("username", username).
				Str("document", documentHash).
				Msg("document never synced")
		}
		return nil, err
	}
	return progress, nil
}
