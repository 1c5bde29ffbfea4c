package domain

import (
	"context"
	"errors"
)

// CreateRequest carries the raw /upload payload.
type CreateRequest struct {
	Image           string `json:"image"`
	CustomerCode    string `json:"customer_code"`
	MeasureDatetime string `json:"measure_datetime"`
	MeasureType     string `json:"measure_type"`
}

// ConfirmRequest carries the raw /confirm payload. ConfirmedValue is a
// float pointer so that a missing field and a non-integer value can be
// told apart after JSON binding.
type ConfirmRequest struct {
	MeasureUUID    string   `json:"measure_uuid"`
	ConfirmedValue *float64 `json:"confirmed_value"`
}

// ListRequest carries the list path and query parameters.
type ListRequest struct {
	CustomerCode string
	MeasureType  string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Measure, error)
	Confirm(ctx context.Context, req ConfirmRequest) (bool, error)
	List(ctx context.Context, req ListRequest) ([]Measure, error)
}

var (
	ErrMissingFields         = errors.New("missing_fields")
	ErrInvalidType           = errors.New("invalid_type")
	ErrInvalidDatetime       = errors.New("invalid_datetime")
	ErrInvalidImage          = errors.New("invalid_image")
	ErrInvalidValue          = errors.New("invalid_value")
	ErrDoubleReport          = errors.New("double_report")
	ErrMeasureNotFound       = errors.New("measure_not_found")
	ErrConfirmationDuplicate = errors.New("confirmation_duplicate")
	ErrMeasuresNotFound      = errors.New("measures_not_found")
)
