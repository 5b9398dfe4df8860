package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
)

const insertBatchSize = 200

// newestFirst orders uploads by upload time, breaking ties by id.
const newestFirst = "uploaded_at DESC, id DESC"

// CreateUpload persists a batch and its equipment rows in one transaction.
// The upload row is created first with its total record count, the equipment
// is attached to it, and the averages are stored once at the end.
func (s *gormStore) CreateUpload(ctx context.Context, upload *model.Upload, rows []parse.Row) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upload.AvgFlowrate, upload.AvgPressure, upload.AvgTemperature = 0, 0, 0
		if err := tx.Omit(clause.Associations).Create(upload).Error; err != nil {
			return fmt.Errorf("failed to create upload %q: %w", upload.Filename, err)
		}
		if len(rows) == 0 {
			return nil
		}

		items := make([]model.Equipment, len(rows))
		for i, r := range rows {
			items[i] = model.Equipment{
				UploadID:      upload.ID,
				EquipmentName: r.Name,
				EquipmentType: r.Type,
				Flowrate:      r.Flowrate,
				Pressure:      r.Pressure,
				Temperature:   r.Temperature,
			}
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(&items, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert equipment for upload %d: %w", upload.ID, err)
		}

		upload.AvgFlowrate, upload.AvgPressure, upload.AvgTemperature = parse.Averages(rows)
		if err := tx.Model(&model.Upload{}).Where("id = ?", upload.ID).Updates(map[string]any{
			"avg_flowrate":    upload.AvgFlowrate,
			"avg_pressure":    upload.AvgPressure,
			"avg_temperature": upload.AvgTemperature,
		}).Error; err != nil {
			return fmt.Errorf("failed to store averages for upload %d: %w", upload.ID, err)
		}
		return nil
	})
}

// PruneUploads deletes every upload of userID beyond the keep most recent,
// equipment first, and returns how many uploads were removed.
func (s *gormStore) PruneUploads(ctx context.Context, userID uint, keep int) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&model.Upload{}).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to list uploads of user %d: %w", userID, err)
	}
	if len(ids) <= keep {
		return 0, nil
	}
	stale := ids[keep:]

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("upload_id IN ?", stale).Delete(&model.Equipment{}).Error; err != nil {
			return fmt.Errorf("failed to delete equipment of stale uploads: %w", err)
		}
		if err := tx.Where("id IN ?", stale).Delete(&model.Upload{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale uploads: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

// RecentUploads lists the newest uploads of userID with their equipment counts.
func (s *gormStore) RecentUploads(ctx context.Context, userID uint, limit int) ([]UploadSummary, error) {
	var uploads []model.Upload
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(limit).
		Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to list uploads of user %d: %w", userID, err)
	}

	summaries := make([]UploadSummary, 0, len(uploads))
	if len(uploads) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(uploads))
	for i, u := range uploads {
		ids[i] = u.ID
	}

	type countRow struct {
		UploadID uint
		Count    int64
	}
	var counts []countRow
	if err := s.db.WithContext(ctx).
		Model(&model.Equipment{}).
		Select("upload_id AS upload_id, COUNT(*) AS count").
		Where("upload_id IN ?", ids).
		Group("upload_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count equipment: %w", err)
	}
	countMap := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countMap[c.UploadID] = c.Count
	}

	for _, u := range uploads {
		summaries = append(summaries, UploadSummary{Upload: u, EquipmentCount: countMap[u.ID]})
	}
	return summaries, nil
}

// UploadForUser fetches one upload, hiding uploads of other users.
func (s *gormStore) UploadForUser(ctx context.Context, userID, uploadID uint) (*model.Upload, error) {
	var upload model.Upload
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uploadID, userID).
		First(&upload).Error; err != nil {
		return nil, notFound(err)
	}
	return &upload, nil
}

// LatestUpload returns the most recent upload of userID.
func (s *gormStore) LatestUpload(ctx context.Context, userID uint) (*model.Upload, error) {
	var uploads []model.Upload
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(1).
		Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to find latest upload of user %d: %w", userID, err)
	}
	if len(uploads) == 0 {
		return nil, ErrNotFound
	}
	return &uploads[0], nil
}

// EquipmentForUpload returns up to limit records of one upload in insertion order.
// A non-positive limit returns them all.
func (s *gormStore) EquipmentForUpload(ctx context.Context, uploadID uint, limit int) ([]model.Equipment, error) {
	q := s.db.WithContext(ctx).Where("upload_id = ?", uploadID).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var items []model.Equipment
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load equipment of upload %d: %w", uploadID, err)
	}
	return items, nil
}
