package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/musikmadness/musikmadness-api/brackets"
	"github.com/musikmadness/musikmadness-api/models"
	"github.com/musikmadness/musikmadness-api/storage"
)

const archiveTimeout = 10 * time.Second

// BracketSnapshot is the document written to object storage.
type BracketSnapshot struct {
	TournamentID        uuid.UUID               `json:"tournament_id"`
	Name                string                  `json:"name"`
	Status              models.TournamentStatus `json:"status"`
	WinnerParticipantID *uuid.UUID              `json:"winner_participant_id,omitempty"`
	ArchivedAt          time.Time               `json:"archived_at"`
	Bracket             brackets.Bracket        `json:"bracket"`
}

// BracketArchiver uploads bracket snapshots. It is disabled when built
// without an uploader.
type BracketArchiver struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewBracketArchiver(uploader storage.FileUploader, logger *slog.Logger) *BracketArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketArchiver{uploader: uploader, logger: logger, now: time.Now}
}

func (a *BracketArchiver) Enabled() bool {
	return a != nil && a.uploader != nil
}

// Archive writes the tournament's current bracket to
// brackets/<tournamentID>/snapshot.json, replacing the previous snapshot.
func (a *BracketArchiver) Archive(ctx context.Context, t *models.Tournament) (*storage.UploadResult, error) {
	if !a.Enabled() {
		return nil, nil
	}

	payload, err := json.Marshal(BracketSnapshot{
		TournamentID:        t.ID,
		Name:                t.Name,
		Status:              t.Status,
		WinnerParticipantID: t.WinnerParticipantID,
		ArchivedAt:          a.now().UTC(),
		Bracket:             t.Bracket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket snapshot: %w", err)
	}

	// The upload outlives a cancelled request but not a stuck bucket.
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key := storage.BracketSnapshotKey(t.ID.String())
	result, err := a.uploader.Upload(uploadCtx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to archive bracket of tournament %s: %w", t.ID, err)
	}

	a.logger.Debug("bracket archived",
		slog.String("tournament_id", t.ID.String()),
		slog.String("key", result.Key),
		slog.String("location", result.Location),
	)
	return result, nil
}
