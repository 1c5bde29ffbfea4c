package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	"github.com/smallbiznis/meterscan/internal/measure/domain"
	"github.com/smallbiznis/meterscan/internal/measure/repository"
	"github.com/smallbiznis/meterscan/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, imageBase64 string) (int64, error) {
	args := m.Called(ctx, imageBase64)
	return args.Get(0).(int64), args.Error(1)
}

type serviceFixture struct {
	svc       domain.Service
	db        *gorm.DB
	extractor *mockExtractor
	imageDir  string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Measure{}))

	imageDir := t.TempDir()
	images, err := imagestore.New(imagestore.Config{
		Dir:     imageDir,
		BaseURL: "http://localhost:8080",
	}, zap.NewNop())
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	extractor := &mockExtractor{}
	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Extractor: extractor,
		Images:    images,
	})

	return &serviceFixture{svc: svc, db: conn, extractor: extractor, imageDir: imageDir}
}

func (f *serviceFixture) countMeasures(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&domain.Measure{}).Count(&count).Error)
	return count
}

func TestCreateStoresPendingMeasure(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(4321), nil)

	measure, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T10:00:00Z",
		MeasureType:     "WATER",
	})
	require.NoError(t, err)

	assert.NotZero(t, measure.ID)
	assert.Equal(t, int64(4321), measure.Value)
	assert.False(t, measure.Confirmed)
	assert.Contains(t, measure.ImageURL, "/image/"+measure.ID.String())

	entries, err := os.ReadDir(f.imageDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int64(1), f.countMeasures(t))
}

func TestCreateRejectsDoubleReport(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(100), nil)

	req := domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T10:00:00Z",
		MeasureType:     "GAS",
	}

	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDoubleReport)
	assert.Equal(t, int64(1), f.countMeasures(t))
}

func TestCreateAllowsSamePeriodDifferentType(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(100), nil)

	req := domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T10:00:00Z",
		MeasureType:     "WATER",
	}
	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.MeasureType = "GAS"
	_, err = f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.countMeasures(t))
}

func TestCreateExtractionFailurePersistsNothing(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("model unavailable"))

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T10:00:00Z",
		MeasureType:     "WATER",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDoubleReport)

	entries, readErr := os.ReadDir(f.imageDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), f.countMeasures(t))
}

func TestConfirmIsOneShot(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(500), nil)

	measure, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T10:00:00Z",
		MeasureType:     "WATER",
	})
	require.NoError(t, err)

	confirmed := float64(512)
	success, err := f.svc.Confirm(context.Background(), domain.ConfirmRequest{
		MeasureUUID:    measure.ID.String(),
		ConfirmedValue: &confirmed,
	})
	require.NoError(t, err)
	assert.True(t, success)

	var stored domain.Measure
	require.NoError(t, f.db.First(&stored, "id = ?", measure.ID).Error)
	assert.True(t, stored.Confirmed)
	assert.Equal(t, int64(512), stored.Value)

	again := float64(600)
	_, err = f.svc.Confirm(context.Background(), domain.ConfirmRequest{
		MeasureUUID:    measure.ID.String(),
		ConfirmedValue: &again,
	})
	assert.ErrorIs(t, err, domain.ErrConfirmationDuplicate)

	require.NoError(t, f.db.First(&stored, "id = ?", measure.ID).Error)
	assert.Equal(t, int64(512), stored.Value)
}

func TestConfirmUnknownMeasure(t *testing.T) {
	f := newServiceFixture(t)

	confirmed := float64(10)
	_, err := f.svc.Confirm(context.Background(), domain.ConfirmRequest{
		MeasureUUID:    "987654321987654321",
		ConfirmedValue: &confirmed,
	})
	assert.ErrorIs(t, err, domain.ErrMeasureNotFound)
}

func TestListFiltersAndOrders(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(1), nil)

	for _, seed := range []struct {
		datetime string
		kind     string
	}{
		{"2026-07-01T00:00:00Z", "WATER"},
		{"2026-08-01T00:00:00Z", "WATER"},
		{"2026-08-01T00:00:00Z", "GAS"},
	} {
		_, err := f.svc.Create(context.Background(), domain.CreateRequest{
			Image:           "aGVsbG8gd29ybGQ=",
			CustomerCode:    "cust-1",
			MeasureDatetime: seed.datetime,
			MeasureType:     seed.kind,
		})
		require.NoError(t, err)
	}

	all, err := f.svc.List(context.Background(), domain.ListRequest{CustomerCode: "cust-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].MeasureDatetime.Before(all[2].MeasureDatetime) ||
		all[0].MeasureDatetime.Equal(all[2].MeasureDatetime))
	assert.Equal(t, time.July, all[0].MeasureDatetime.Month())

	water, err := f.svc.List(context.Background(), domain.ListRequest{
		CustomerCode: "cust-1",
		MeasureType:  "WATER",
	})
	require.NoError(t, err)
	assert.Len(t, water, 2)
	for _, m := range water {
		assert.Equal(t, domain.MeasureTypeWater, m.Type)
	}
}

func TestListInvalidTypeFilter(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.List(context.Background(), domain.ListRequest{
		CustomerCode: "cust-1",
		MeasureType:  "OIL",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestListUnknownCustomer(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.List(context.Background(), domain.ListRequest{CustomerCode: "ghost"})
	assert.ErrorIs(t, err, domain.ErrMeasuresNotFound)
}

func TestListEmptyForTypeWithRecords(t *testing.T) {
	f := newServiceFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{
		Image:           "aGVsbG8gd29ybGQ=",
		CustomerCode:    "cust-1",
		MeasureDatetime: "2026-08-01T00:00:00Z",
		MeasureType:     "WATER",
	})
	require.NoError(t, err)

	gas, err := f.svc.List(context.Background(), domain.ListRequest{
		CustomerCode: "cust-1",
		MeasureType:  "GAS",
	})
	require.NoError(t, err)
	assert.Empty(t, gas)
}

var _ vision.Extractor = (*mockExtractor)(nil)
