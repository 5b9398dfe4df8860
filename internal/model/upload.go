package model

import "time"

// Upload tracks one CSV ingestion (a batch) and the averages computed for it.
type Upload struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index:idx_uploads_user_uploaded_at,priority:1;not null" json:"-"`
	Filename       string    `gorm:"size:255;not null" json:"filename"`
	UploadedAt     time.Time `gorm:"autoCreateTime;index:idx_uploads_user_uploaded_at,priority:2;not null" json:"uploaded_at"`
	TotalRecords   int       `gorm:"not null;default:0" json:"total_records"`
	AvgFlowrate    float64   `gorm:"not null;default:0" json:"avg_flowrate"`
	AvgPressure    float64   `gorm:"not null;default:0" json:"avg_pressure"`
	AvgTemperature float64   `gorm:"not null;default:0" json:"avg_temperature"`

	// Associations
	User      User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Equipment []Equipment `gorm:"foreignKey:UploadID" json:"-"`
}
