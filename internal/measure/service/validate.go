package service

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterscan/internal/measure/domain"
)

// base64ImageRe accepts a bare base64 payload, optionally prefixed with a
// data-URI media-type header for the supported image formats.
var base64ImageRe = regexp.MustCompile(`^(data:image/(png|jpg|jpeg|gif);base64,)?[A-Za-z0-9+/]+={0,2}$`)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// createInput is a validated, normalized create request.
type createInput struct {
	CustomerCode    string
	Type            domain.MeasureType
	MeasureDatetime time.Time
	Image           string
}

// confirmInput is a validated, normalized confirm request.
type confirmInput struct {
	ID    snowflake.ID
	Value int64
}

// validateCreate applies the create rules in order; the first violated
// rule wins.
func validateCreate(req domain.CreateRequest) (*createInput, error) {
	customerCode := strings.TrimSpace(req.CustomerCode)
	if customerCode == "" || req.MeasureType == "" || req.MeasureDatetime == "" || req.Image == "" {
		return nil, domain.ErrMissingFields
	}

	measureType, err := domain.ParseMeasureType(req.MeasureType)
	if err != nil {
		return nil, err
	}

	measureDatetime, err := parseDatetime(req.MeasureDatetime)
	if err != nil {
		return nil, err
	}

	if !base64ImageRe.MatchString(req.Image) {
		return nil, domain.ErrInvalidImage
	}

	return &createInput{
		CustomerCode:    customerCode,
		Type:            measureType,
		MeasureDatetime: measureDatetime,
		Image:           req.Image,
	}, nil
}

// validateConfirm applies the confirm rules in order.
func validateConfirm(req domain.ConfirmRequest) (*confirmInput, error) {
	measureUUID := strings.TrimSpace(req.MeasureUUID)
	if measureUUID == "" || req.ConfirmedValue == nil {
		return nil, domain.ErrMissingFields
	}

	value := *req.ConfirmedValue
	if value != math.Trunc(value) {
		return nil, domain.ErrInvalidValue
	}

	// An unparseable id can never reference a stored record.
	id, err := snowflake.ParseString(measureUUID)
	if err != nil || id == 0 {
		return nil, domain.ErrMeasureNotFound
	}

	return &confirmInput{ID: id, Value: int64(value)}, nil
}

func parseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrInvalidDatetime
}
