package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	"github.com/smallbiznis/meterscan/internal/measure/domain"
	obsmetrics "github.com/smallbiznis/meterscan/internal/observability/metrics"
	"github.com/smallbiznis/meterscan/internal/vision"
	"github.com/smallbiznis/meterscan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Extractor vision.Extractor
	Images    *imagestore.Store
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

// Service drives the measurement lifecycle: pending on create, confirmed
// exactly once.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	extractor vision.Extractor
	images    *imagestore.Store
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("measure.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		extractor: p.Extractor,
		images:    p.Images,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Measure, error) {
	in, err := validateCreate(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, s.db, in.CustomerCode, in.Type, in.MeasureDatetime)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDoubleReport
	}

	// Extraction happens before anything is persisted: a failing
	// extractor aborts the create without leaving a record behind.
	value, err := s.extractor.Extract(ctx, in.Image)
	if err != nil {
		s.metrics.RecordExtractionFailure(ctx)
		s.log.Error("reading extraction failed",
			zap.String("customer_code", in.CustomerCode),
			zap.Error(err),
		)
		return nil, fmt.Errorf("extract reading: %w", err)
	}

	id := s.genID.Generate()
	fileName, err := s.images.Save(id.String(), in.Image)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	now := time.Now().UTC()
	measure := domain.Measure{
		ID:              id,
		CustomerCode:    in.CustomerCode,
		Type:            in.Type,
		MeasureDatetime: in.MeasureDatetime,
		Value:           value,
		ImageURL:        s.images.URL(fileName),
		Confirmed:       false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &measure); err != nil {
		_ = s.images.Remove(fileName)
		if db.IsDuplicateKeyErr(err) {
			// A concurrent upload won the race; the unique index is
			// the authoritative duplicate check.
			return nil, domain.ErrDoubleReport
		}
		return nil, err
	}

	s.metrics.RecordUpload(ctx, string(in.Type))
	s.log.Info("measure created",
		zap.String("measure_uuid", id.String()),
		zap.String("customer_code", in.CustomerCode),
		zap.String("measure_type", string(in.Type)),
		zap.Int64("value", value),
	)

	return &measure, nil
}

func (s *Service) Confirm(ctx context.Context, req domain.ConfirmRequest) (bool, error) {
	in, err := validateConfirm(req)
	if err != nil {
		return false, err
	}

	measure, err := s.repo.FindByID(ctx, s.db, in.ID)
	if err != nil {
		return false, err
	}
	if measure == nil {
		return false, domain.ErrMeasureNotFound
	}
	if measure.Confirmed {
		return false, domain.ErrConfirmationDuplicate
	}

	updated, err := s.repo.ConfirmValue(ctx, s.db, in.ID, in.Value, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if !updated {
		// Lost the race against a concurrent confirm; the conditional
		// update is the authoritative one-shot check.
		return false, domain.ErrConfirmationDuplicate
	}

	s.metrics.RecordConfirmation(ctx)
	s.log.Info("measure confirmed",
		zap.String("measure_uuid", in.ID.String()),
		zap.Int64("confirmed_value", in.Value),
	)

	return true, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Measure, error) {
	var typeFilter *domain.MeasureType
	if req.MeasureType != "" {
		measureType, err := domain.ParseMeasureType(req.MeasureType)
		if err != nil {
			return nil, err
		}
		typeFilter = &measureType
	}

	has, err := s.repo.ExistsForCustomer(ctx, s.db, req.CustomerCode)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, domain.ErrMeasuresNotFound
	}

	// A customer with records but none of the requested type gets an
	// empty list, not an error.
	return s.repo.ListByCustomer(ctx, s.db, req.CustomerCode, typeFilter)
}
