package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterscan/internal/measure/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, measure *domain.Measure) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO measures (id, customer_code, measure_type, measure_datetime, value, image_url, confirmed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		measure.ID,
		measure.CustomerCode,
		measure.Type,
		measure.MeasureDatetime,
		measure.Value,
		measure.ImageURL,
		measure.Confirmed,
		measure.CreatedAt,
		measure.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Measure, error) {
	var measure domain.Measure
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_code, measure_type, measure_datetime, value, image_url, confirmed, created_at, updated_at
		 FROM measures WHERE id = ?`,
		id,
	).Scan(&measure).Error
	if err != nil {
		return nil, err
	}
	if measure.ID == 0 {
		return nil, nil
	}
	return &measure, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, customerCode string, measureType domain.MeasureType, measureDatetime time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Measure{}).
		Where("customer_code = ?", customerCode).
		Where("measure_type = ?", measureType).
		Where("measure_datetime = ?", measureDatetime).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ExistsForCustomer(ctx context.Context, db *gorm.DB, customerCode string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Measure{}).
		Where("customer_code = ?", customerCode).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerCode string, measureType *domain.MeasureType) ([]domain.Measure, error) {
	var measures []domain.Measure
	stmt := db.WithContext(ctx).
		Model(&domain.Measure{}).
		Where("customer_code = ?", customerCode)
	if measureType != nil {
		stmt = stmt.Where("measure_type = ?", *measureType)
	}
	err := stmt.
		Order("measure_datetime asc, id asc").
		Find(&measures).Error
	if err != nil {
		return nil, err
	}
	return measures, nil
}

func (r *repo) ConfirmValue(ctx context.Context, db *gorm.DB, id snowflake.ID, value int64, now time.Time) (bool, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE measures SET value = ?, confirmed = ?, updated_at = ? WHERE id = ? AND confirmed = ?`,
		value,
		true,
		now,
		id,
		false,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
