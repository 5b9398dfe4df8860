package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
	"equipment-visualizer-backend/internal/store"
)

const (
	// MaxUploadBytes is the largest accepted CSV file (5 MiB).
	MaxUploadBytes = 5 << 20
	// RetentionLimit is how many uploads are kept per user.
	RetentionLimit = 5
)

// Result describes a completed ingestion.
type Result struct {
	Upload         model.Upload
	EquipmentCount int
	SkippedRows    int
	Pruned         int
}

// Service turns uploaded CSV files into persisted uploads.
type Service struct {
	store store.Store
	log   *zap.Logger
}

// NewService creates a new ingestion service.
func NewService(s store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log}
}

// ValidateFile checks the name and size of an upload before it is read.
func ValidateFile(filename string, size int64) error {
	if !strings.HasSuffix(filename, ".csv") {
		return &ValidationError{Message: "File must be a CSV file"}
	}
	if size > MaxUploadBytes {
		return &ValidationError{Message: "File size must be less than 5MB"}
	}
	return nil
}

// Ingest validates, parses and stores one CSV upload for userID, then enforces
// the per-user retention limit. Rows that fail to decode are dropped without
// failing the upload.
func (s *Service) Ingest(ctx context.Context, userID uint, filename string, size int64, content io.Reader) (*Result, error) {
	if err := ValidateFile(filename, size); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxUploadBytes+1))
	if err != nil {
		return nil, &ProcessingError{Err: err}
	}
	if len(data) > MaxUploadBytes {
		return nil, &ValidationError{Message: "File size must be less than 5MB"}
	}
	if !utf8.Valid(data) {
		return nil, &ProcessingError{Err: errors.New("file is not valid UTF-8")}
	}

	table, err := parse.ParseCSV(bytes.NewReader(data))
	if err != nil {
		var missing *parse.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, &ValidationError{Message: missing.Error()}
		}
		return nil, &ProcessingError{Err: err}
	}

	rows, skipped := table.Decode()
	for _, rowErr := range skipped {
		s.log.Debug("skipping csv row", zap.String("filename", filename), zap.Error(rowErr))
	}

	upload := model.Upload{
		UserID:       userID,
		Filename:     filename,
		TotalRecords: table.TotalRows(),
	}
	if err := s.store.CreateUpload(ctx, &upload, rows); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	pruned, err := s.store.PruneUploads(ctx, userID, RetentionLimit)
	if err != nil {
		// The upload itself is committed; a failed prune is retried by the next ingestion.
		s.log.Error("failed to prune old uploads", zap.Uint("user_id", userID), zap.Error(err))
	}

	s.log.Info("csv ingested",
		zap.Uint("user_id", userID),
		zap.Uint("upload_id", upload.ID),
		zap.String("filename", filename),
		zap.Int("total_rows", upload.TotalRecords),
		zap.Int("stored_rows", len(rows)),
		zap.Int("skipped_rows", len(skipped)),
		zap.Int("pruned_uploads", pruned),
	)

	return &Result{
		Upload:         upload,
		EquipmentCount: len(rows),
		SkippedRows:    len(skipped),
		Pruned:         pruned,
	}, nil
}
