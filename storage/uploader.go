package storage

import (
	"context"
	"io"
	"path"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores objects in a bucket addressed by key.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// BracketSnapshotKey is the object key of a tournament's archived bracket.
func BracketSnapshotKey(tournamentID string) string {
	return path.Join("brackets", tournamentID, "snapshot.json")
}
