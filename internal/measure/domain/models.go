package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MeasureType identifies the kind of utility meter a reading came from.
type MeasureType string

const (
	MeasureTypeWater MeasureType = "WATER"
	MeasureTypeGas   MeasureType = "GAS"
)

// ParseMeasureType validates a raw measure type value.
func ParseMeasureType(value string) (MeasureType, error) {
	switch MeasureType(value) {
	case MeasureTypeWater, MeasureTypeGas:
		return MeasureType(value), nil
	default:
		return "", ErrInvalidType
	}
}

// Measure is a single meter reading submitted by a customer.
//
// The composite unique index closes the create race: two concurrent
// uploads for the same customer/type/period can both pass the
// duplicate pre-check, but only one insert succeeds.
type Measure struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	CustomerCode    string       `json:"customer_code" gorm:"column:customer_code;type:text;not null;uniqueIndex:ux_measures_customer_type_datetime,priority:1"`
	Type            MeasureType  `json:"measure_type" gorm:"column:measure_type;type:text;not null;uniqueIndex:ux_measures_customer_type_datetime,priority:2"`
	MeasureDatetime time.Time    `json:"measure_datetime" gorm:"column:measure_datetime;not null;uniqueIndex:ux_measures_customer_type_datetime,priority:3"`
	Value           int64        `json:"value" gorm:"not null"`
	ImageURL        string       `json:"image_url" gorm:"column:image_url;type:text;not null"`
	Confirmed       bool         `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Measure) TableName() string { return "measures" }
