// Package format maps stored measurements to their public response
// shapes. It is pure: no I/O, no database access.
package format

import (
	"time"

	"github.com/smallbiznis/meterscan/internal/measure/domain"
)

// MeasureItem is the public shape of a stored measurement.
type MeasureItem struct {
	MeasureUUID     string             `json:"measure_uuid"`
	MeasureDatetime time.Time          `json:"measure_datetime"`
	MeasureType     domain.MeasureType `json:"measure_type"`
	HasConfirmed    bool               `json:"has_confirmed"`
	ImageURL        string             `json:"image_url"`
}

// ListResponse is the body returned by /:customer_code/list.
type ListResponse struct {
	CustomerCode string        `json:"customer_code"`
	Measures     []MeasureItem `json:"measures"`
}

// CreateResponse is the body returned by /upload.
type CreateResponse struct {
	ImageURL     string `json:"image_url"`
	MeasureValue int64  `json:"measure_value"`
	MeasureUUID  string `json:"measure_uuid"`
}

// List formats a customer's measurements. Measures is always a non-nil
// slice so an empty result serializes as [].
func List(customerCode string, measures []domain.Measure) ListResponse {
	items := make([]MeasureItem, 0, len(measures))
	for _, measure := range measures {
		items = append(items, MeasureItem{
			MeasureUUID:     measure.ID.String(),
			MeasureDatetime: measure.MeasureDatetime,
			MeasureType:     measure.Type,
			HasConfirmed:    measure.Confirmed,
			ImageURL:        measure.ImageURL,
		})
	}
	return ListResponse{CustomerCode: customerCode, Measures: items}
}

// Create formats a freshly created measurement.
func Create(measure domain.Measure) CreateResponse {
	return CreateResponse{
		ImageURL:     measure.ImageURL,
		MeasureValue: measure.Value,
		MeasureUUID:  measure.ID.String(),
	}
}
