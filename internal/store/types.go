package store

import "equipment-visualizer-backend/internal/model"

// UploadSummary is an upload together with the number of equipment records
// currently attached to it.
type UploadSummary struct {
	model.Upload
	EquipmentCount int64 `json:"equipment_count"`
}

// Stats holds raw (unrounded) aggregates over a user's equipment.
type Stats struct {
	Count          int64
	AvgFlowrate    float64
	AvgPressure    float64
	AvgTemperature float64
}

// EquipmentFilter narrows ListEquipment.
type EquipmentFilter struct {
	Type     model.EquipmentType
	UploadID uint
}
