package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	measuredomain "github.com/smallbiznis/meterscan/internal/measure/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	createFn  func(ctx context.Context, req measuredomain.CreateRequest) (*measuredomain.Measure, error)
	confirmFn func(ctx context.Context, req measuredomain.ConfirmRequest) (bool, error)
	listFn    func(ctx context.Context, req measuredomain.ListRequest) ([]measuredomain.Measure, error)
}

func (f *fakeService) Create(ctx context.Context, req measuredomain.CreateRequest) (*measuredomain.Measure, error) {
	return f.createFn(ctx, req)
}

func (f *fakeService) Confirm(ctx context.Context, req measuredomain.ConfirmRequest) (bool, error) {
	return f.confirmFn(ctx, req)
}

func (f *fakeService) List(ctx context.Context, req measuredomain.ListRequest) ([]measuredomain.Measure, error) {
	return f.listFn(ctx, req)
}

func newTestRouter(t *testing.T, svc measuredomain.Service) (*gin.Engine, *imagestore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	images, err := imagestore.New(imagestore.Config{
		Dir:     t.TempDir(),
		BaseURL: "http://localhost:8080",
	}, zap.NewNop())
	require.NoError(t, err)

	handler := NewMeasureHandler(MeasureHandlerParams{
		Service: svc,
		Images:  images,
		Log:     zap.NewNop(),
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	registerRoutes(r, handler)
	return r, images
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateMeasureSuccess(t *testing.T) {
	measure := &measuredomain.Measure{
		ID:       snowflake.ID(1234),
		Value:    567,
		ImageURL: "http://localhost:8080/image/1234.png",
	}
	r, _ := newTestRouter(t, &fakeService{
		createFn: func(_ context.Context, req measuredomain.CreateRequest) (*measuredomain.Measure, error) {
			assert.Equal(t, "cust-1", req.CustomerCode)
			return measure, nil
		},
	})

	w := doJSON(t, r, http.MethodPost, "/upload",
		`{"image":"aGVsbG8=","customer_code":"cust-1","measure_datetime":"2026-08-01T10:00:00Z","measure_type":"WATER"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"image_url": "http://localhost:8080/image/1234.png",
		"measure_value": 567,
		"measure_uuid": "1234"
	}`, w.Body.String())
}

func TestCreateMeasureErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"image": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATA",
		},
		{
			name:       "missing fields",
			body:       `{}`,
			serviceErr: measuredomain.ErrMissingFields,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATA",
		},
		{
			name:       "invalid type reported as invalid data",
			body:       `{"measure_type":"OIL"}`,
			serviceErr: measuredomain.ErrInvalidType,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATA",
		},
		{
			name:       "double report",
			body:       `{"measure_type":"WATER"}`,
			serviceErr: measuredomain.ErrDoubleReport,
			wantStatus: http.StatusConflict,
			wantCode:   "DOUBLE_REPORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeService{
				createFn: func(context.Context, measuredomain.CreateRequest) (*measuredomain.Measure, error) {
					return nil, tt.serviceErr
				},
			})

			w := doJSON(t, r, http.MethodPost, "/upload", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).ErrorCode)
		})
	}
}

func TestConfirmMeasureSuccess(t *testing.T) {
	r, _ := newTestRouter(t, &fakeService{
		confirmFn: func(_ context.Context, req measuredomain.ConfirmRequest) (bool, error) {
			assert.Equal(t, "1234", req.MeasureUUID)
			require.NotNil(t, req.ConfirmedValue)
			assert.Equal(t, float64(42), *req.ConfirmedValue)
			return true, nil
		},
	})

	w := doJSON(t, r, http.MethodPatch, "/confirm", `{"measure_uuid":"1234","confirmed_value":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}

func TestConfirmMeasureErrors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid value",
			serviceErr: measuredomain.ErrInvalidValue,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATA",
		},
		{
			name:       "not found",
			serviceErr: measuredomain.ErrMeasureNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "MEASURE_NOT_FOUND",
		},
		{
			name:       "already confirmed",
			serviceErr: measuredomain.ErrConfirmationDuplicate,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFIRMATION_DUPLICATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeService{
				confirmFn: func(context.Context, measuredomain.ConfirmRequest) (bool, error) {
					return false, tt.serviceErr
				},
			})

			w := doJSON(t, r, http.MethodPatch, "/confirm", `{"measure_uuid":"1234","confirmed_value":42}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).ErrorCode)
		})
	}
}

func TestListMeasuresSuccess(t *testing.T) {
	datetime := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	r, _ := newTestRouter(t, &fakeService{
		listFn: func(_ context.Context, req measuredomain.ListRequest) ([]measuredomain.Measure, error) {
			assert.Equal(t, "cust-1", req.CustomerCode)
			assert.Equal(t, "GAS", req.MeasureType)
			return []measuredomain.Measure{{
				ID:              snowflake.ID(7),
				CustomerCode:    "cust-1",
				Type:            measuredomain.MeasureTypeGas,
				MeasureDatetime: datetime,
				ImageURL:        "http://localhost:8080/image/7.png",
				Confirmed:       true,
			}}, nil
		},
	})

	w := doJSON(t, r, http.MethodGet, "/cust-1/list?measure_type=GAS", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"customer_code": "cust-1",
		"measures": [{
			"measure_uuid": "7",
			"measure_datetime": "2026-08-01T10:00:00Z",
			"measure_type": "GAS",
			"has_confirmed": true,
			"image_url": "http://localhost:8080/image/7.png"
		}]
	}`, w.Body.String())
}

func TestListMeasuresErrors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid type filter",
			serviceErr: measuredomain.ErrInvalidType,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TYPE",
		},
		{
			name:       "no readings at all",
			serviceErr: measuredomain.ErrMeasuresNotFound,
			wantStatus: http.StatusConflict,
			wantCode:   "MEASURES_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeService{
				listFn: func(context.Context, measuredomain.ListRequest) ([]measuredomain.Measure, error) {
					return nil, tt.serviceErr
				},
			})

			w := doJSON(t, r, http.MethodGet, "/cust-1/list", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).ErrorCode)
		})
	}
}

func TestGetImage(t *testing.T) {
	r, images := newTestRouter(t, &fakeService{})

	name, err := images.Save("55", base64.StdEncoding.EncodeToString([]byte("image bytes")))
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/image/"+name, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image bytes", w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/image/missing.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "IMAGE_NOT_FOUND", decodeError(t, w).ErrorCode)
}
