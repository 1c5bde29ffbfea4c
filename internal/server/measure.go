package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	measuredomain "github.com/smallbiznis/meterscan/internal/measure/domain"
	"github.com/smallbiznis/meterscan/internal/measure/format"
	"github.com/smallbiznis/meterscan/internal/observability/logger"
	"go.uber.org/zap"
)

// CreateMeasure handles POST /upload.
func (h *MeasureHandler) CreateMeasure(c *gin.Context) {
	ctx := c.Request.Context()

	var req measuredomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	if h.limiter.Enabled() {
		allowed, err := h.limiter.AllowCustomer(ctx, req.CustomerCode)
		if err != nil {
			// Redis being down must not take uploads with it.
			logger.FromContext(ctx).Warn("upload limiter unavailable", zap.Error(err))
		} else if !allowed {
			h.metrics.RecordRateLimitDenied(ctx)
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	measure, err := h.service.Create(ctx, req)
	if err != nil {
		if errors.Is(err, measuredomain.ErrInvalidType) {
			err = errTypeNotAllowed
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, format.Create(*measure))
}

// ConfirmMeasure handles PATCH /confirm.
func (h *MeasureHandler) ConfirmMeasure(c *gin.Context) {
	var req measuredomain.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidBody)
		return
	}

	success, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": success})
}

// ListMeasures handles GET /:customer_code/list.
func (h *MeasureHandler) ListMeasures(c *gin.Context) {
	req := measuredomain.ListRequest{
		CustomerCode: strings.TrimSpace(c.Param("customer_code")),
		MeasureType:  c.Query("measure_type"),
	}

	measures, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, format.List(req.CustomerCode, measures))
}
