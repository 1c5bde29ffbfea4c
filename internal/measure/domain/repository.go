package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, measure *Measure) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Measure, error)
	Exists(ctx context.Context, db *gorm.DB, customerCode string, measureType MeasureType, measureDatetime time.Time) (bool, error)
	ExistsForCustomer(ctx context.Context, db *gorm.DB, customerCode string) (bool, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerCode string, measureType *MeasureType) ([]Measure, error)
	// ConfirmValue sets value and the confirmed flag on a pending record.
	// The update is conditional on confirmed = false and reports whether a
	// row was actually changed, so a confirmation can never be applied twice.
	ConfirmValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value int64, now time.Time) (bool, error)
}
