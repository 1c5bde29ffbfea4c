package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/meterscan/internal/config"
	"github.com/smallbiznis/meterscan/internal/imagestore"
	measuredomain "github.com/smallbiznis/meterscan/internal/measure/domain"
	"github.com/smallbiznis/meterscan/internal/observability"
	"github.com/smallbiznis/meterscan/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/meterscan/internal/observability/metrics"
	"github.com/smallbiznis/meterscan/internal/observability/tracing"
	"github.com/smallbiznis/meterscan/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewMeasureHandler),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

// EngineParams collects the middleware dependencies of the router.
type EngineParams struct {
	fx.In

	Cfg         config.Config
	ObsCfg      observability.Config
	Log         *zap.Logger
	HTTPMetrics *obsmetrics.HTTPMetrics
}

func NewEngine(p EngineParams) *gin.Engine {
	if p.ObsCfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(tracing.GinMiddleware())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(p.HTTPMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// MeasureHandler serves the public measurement endpoints.
type MeasureHandler struct {
	service measuredomain.Service
	images  *imagestore.Store
	limiter *ratelimit.UploadLimiter
	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

// MeasureHandlerParams collects handler dependencies.
type MeasureHandlerParams struct {
	fx.In

	Service measuredomain.Service
	Images  *imagestore.Store
	Limiter *ratelimit.UploadLimiter `optional:"true"`
	Metrics *obsmetrics.Metrics      `optional:"true"`
	Log     *zap.Logger
}

func NewMeasureHandler(p MeasureHandlerParams) *MeasureHandler {
	return &MeasureHandler{
		service: p.Service,
		images:  p.Images,
		limiter: p.Limiter,
		metrics: p.Metrics,
		log:     p.Log.Named("server"),
	}
}

func registerRoutes(r *gin.Engine, h *MeasureHandler) {
	r.POST("/upload", h.CreateMeasure)
	r.PATCH("/confirm", h.ConfirmMeasure)
	r.GET("/image/:id", h.GetImage)
	r.GET("/:customer_code/list", h.ListMeasures)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
