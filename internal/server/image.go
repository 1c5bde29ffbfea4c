package server

import (
	"github.com/gin-gonic/gin"
)

// GetImage handles GET /image/:id, serving a stored meter photo.
func (h *MeasureHandler) GetImage(c *gin.Context) {
	path, err := h.images.Path(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.File(path)
}
