package store

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
)

// EquipmentStats aggregates count and averages over every equipment record of userID.
func (s *gormStore) EquipmentStats(ctx context.Context, userID uint) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Equipment{}).
		Select("COUNT(*) AS count, "+
			"COALESCE(AVG(flowrate), 0) AS avg_flowrate, "+
			"COALESCE(AVG(pressure), 0) AS avg_pressure, "+
			"COALESCE(AVG(temperature), 0) AS avg_temperature").
		Where("upload_id IN (?)", userUploads(db, userID)).
		Scan(&st).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate equipment of user %d: %w", userID, err)
	}
	if finite(st.AvgFlowrate, st.AvgPressure, st.AvgTemperature) {
		return st, nil
	}

	// AVG summed past the float range; recompute with a running mean.
	rows, err := db.Model(&model.Equipment{}).
		Select("flowrate, pressure, temperature").
		Where("upload_id IN (?)", userUploads(db, userID)).
		Rows()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read equipment of user %d: %w", userID, err)
	}
	defer rows.Close()

	var f, p, t parse.Mean
	for rows.Next() {
		var flowrate, pressure, temperature float64
		if err := rows.Scan(&flowrate, &pressure, &temperature); err != nil {
			return Stats{}, fmt.Errorf("failed to scan equipment of user %d: %w", userID, err)
		}
		f.Add(flowrate)
		p.Add(pressure)
		t.Add(temperature)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to read equipment of user %d: %w", userID, err)
	}
	st.AvgFlowrate, st.AvgPressure, st.AvgTemperature = f.Value(), p.Value(), t.Value()
	return st, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// TypeDistribution counts equipment per type. Types with no records are absent.
func (s *gormStore) TypeDistribution(ctx context.Context, userID uint) (map[model.EquipmentType]int64, error) {
	type aggRow struct {
		EquipmentType string
		Count         int64
	}
	var rows []aggRow
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Equipment{}).
		Select("equipment_type AS equipment_type, COUNT(*) AS count").
		Where("upload_id IN (?)", userUploads(db, userID)).
		Group("equipment_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group equipment of user %d: %w", userID, err)
	}

	dist := make(map[model.EquipmentType]int64, len(rows))
	for _, r := range rows {
		if r.Count > 0 {
			dist[model.EquipmentType(r.EquipmentType)] = r.Count
		}
	}
	return dist, nil
}

// ListEquipment returns the caller's equipment, newest first.
func (s *gormStore) ListEquipment(ctx context.Context, userID uint, filter EquipmentFilter) ([]model.Equipment, error) {
	db := s.db.WithContext(ctx)
	q := db.Where("upload_id IN (?)", userUploads(db, userID))
	if filter.Type != "" {
		q = q.Where("equipment_type = ?", filter.Type)
	}
	if filter.UploadID != 0 {
		q = q.Where("upload_id = ?", filter.UploadID)
	}

	items := []model.Equipment{}
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment of user %d: %w", userID, err)
	}
	return items, nil
}

// EquipmentForUser fetches one record if it belongs to one of the caller's uploads.
func (s *gormStore) EquipmentForUser(ctx context.Context, userID, id uint) (*model.Equipment, error) {
	var eq model.Equipment
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ? AND upload_id IN (?)", id, userUploads(db, userID)).First(&eq).Error; err != nil {
		return nil, notFound(err)
	}
	return &eq, nil
}

// CreateEquipment adds a record to one of the caller's uploads. The upload's
// stored averages are left untouched.
func (s *gormStore) CreateEquipment(ctx context.Context, userID uint, eq *model.Equipment) error {
	if _, err := s.UploadForUser(ctx, userID, eq.UploadID); err != nil {
		return err
	}
	eq.ID = 0
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(eq).Error; err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

// UpdateEquipment overwrites the mutable fields of an existing record.
func (s *gormStore) UpdateEquipment(ctx context.Context, userID uint, eq *model.Equipment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Equipment
		if err := tx.Where("id = ? AND upload_id IN (?)", eq.ID, userUploads(tx, userID)).
			First(&existing).Error; err != nil {
			return notFound(err)
		}
		if eq.UploadID != existing.UploadID {
			var n int64
			if err := tx.Model(&model.Upload{}).
				Where("id = ? AND user_id = ?", eq.UploadID, userID).
				Count(&n).Error; err != nil {
				return fmt.Errorf("failed to check upload %d: %w", eq.UploadID, err)
			}
			if n == 0 {
				return ErrNotFound
			}
		}

		if err := tx.Model(&existing).
			Select("upload_id", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature").
			Omit(clause.Associations).
			Updates(eq).Error; err != nil {
			return fmt.Errorf("failed to update equipment %d: %w", eq.ID, err)
		}
		eq.CreatedAt = existing.CreatedAt
		return nil
	})
}

func (s *gormStore) DeleteEquipment(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)
	res := db.Where("id = ? AND upload_id IN (?)", id, userUploads(db, userID)).Delete(&model.Equipment{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete equipment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
