// Package analytics computes the per-user dashboard aggregates and assembles
// report data from stored uploads.
package analytics

import (
	"context"
	"math"
	"time"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/report"
	"equipment-visualizer-backend/internal/store"
)

const (
	// RecentLimit is the number of uploads returned by Summary and History.
	RecentLimit = 5
	// ReportEquipmentLimit caps the equipment rows printed in a report.
	ReportEquipmentLimit = 20
)

// Summary is the dashboard payload for one user.
type Summary struct {
	TotalCount        int64                         `json:"total_count"`
	AvgFlowrate       float64                       `json:"avg_flowrate"`
	AvgPressure       float64                       `json:"avg_pressure"`
	AvgTemperature    float64                       `json:"avg_temperature"`
	EquipmentTypeDist map[model.EquipmentType]int64 `json:"equipment_type_distribution"`
	RecentUploads     []store.UploadSummary         `json:"recent_uploads"`
}

// Service reads aggregates from the store. It holds no state between calls.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates an analytics service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Summary computes the statistics over every equipment record the user owns.
// A user with no records gets zeros and empty collections, not an error.
func (s *Service) Summary(ctx context.Context, userID uint) (*Summary, error) {
	stats, err := s.store.EquipmentStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats.Count == 0 {
		return &Summary{
			EquipmentTypeDist: map[model.EquipmentType]int64{},
			RecentUploads:     []store.UploadSummary{},
		}, nil
	}

	dist, err := s.store.TypeDistribution(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentUploads(ctx, userID, RecentLimit)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalCount:        stats.Count,
		AvgFlowrate:       Round2(stats.AvgFlowrate),
		AvgPressure:       Round2(stats.AvgPressure),
		AvgTemperature:    Round2(stats.AvgTemperature),
		EquipmentTypeDist: dist,
		RecentUploads:     recent,
	}, nil
}

// History lists the user's most recent uploads, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]store.UploadSummary, error) {
	return s.store.RecentUploads(ctx, userID, RecentLimit)
}

// ReportData collects what a report needs for one upload. A nil uploadID
// selects the user's latest upload. Missing or foreign uploads yield
// store.ErrNotFound.
func (s *Service) ReportData(ctx context.Context, userID uint, uploadID *uint) (*report.Data, error) {
	var (
		upload *model.Upload
		err    error
	)
	if uploadID != nil {
		upload, err = s.store.UploadForUser(ctx, userID, *uploadID)
	} else {
		upload, err = s.store.LatestUpload(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.store.EquipmentForUpload(ctx, upload.ID, ReportEquipmentLimit)
	if err != nil {
		return nil, err
	}

	return &report.Data{
		Upload:      *upload,
		Equipment:   items,
		GeneratedAt: s.now(),
	}, nil
}

// Round2 rounds half away from zero to two decimal places. Values too large
// to carry a fractional part are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*100) / 100
}
