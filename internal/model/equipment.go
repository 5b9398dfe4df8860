package model

import "time"

// EquipmentType is the closed set of equipment categories.
type EquipmentType string

const (
	TypePump          EquipmentType = "pump"
	TypeCompressor    EquipmentType = "compressor"
	TypeReactor       EquipmentType = "reactor"
	TypeHeatExchanger EquipmentType = "heat_exchanger"
	TypeSeparator     EquipmentType = "separator"
	TypeMixer         EquipmentType = "mixer"
	TypeBoiler        EquipmentType = "boiler"
	TypeFilter        EquipmentType = "filter"
	TypeOther         EquipmentType = "other"
)

// EquipmentTypes lists every valid EquipmentType.
var EquipmentTypes = []EquipmentType{
	TypePump, TypeCompressor, TypeReactor, TypeHeatExchanger, TypeSeparator,
	TypeMixer, TypeBoiler, TypeFilter, TypeOther,
}

// Valid reports whether t is one of EquipmentTypes.
func (t EquipmentType) Valid() bool {
	for _, v := range EquipmentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Equipment is one ingested measurement row. It always belongs to one upload.
type Equipment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UploadID      uint          `gorm:"index;not null" json:"upload"`
	EquipmentName string        `gorm:"size:255;not null" json:"equipment_name"`
	EquipmentType EquipmentType `gorm:"size:50;index;not null" json:"equipment_type"`
	Flowrate      float64       `gorm:"not null" json:"flowrate"`
	Pressure      float64       `gorm:"not null" json:"pressure"`
	Temperature   float64       `gorm:"not null" json:"temperature"`
	CreatedAt     time.Time     `gorm:"autoCreateTime;<-:create;not null" json:"created_at"`

	// Associations
	Upload Upload `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the uncountable noun as the table name.
func (Equipment) TableName() string {
	return "equipment"
}
