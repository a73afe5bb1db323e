package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/stakedex-engine/internal/http/httputil"
)

type PrefundHandler struct {
	engine QuoteEngine
}

func NewPrefundHandler(engine QuoteEngine) *PrefundHandler {
	return &PrefundHandler{engine: engine}
}

func (h *PrefundHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getPrefund)
}

func (h *PrefundHandler) Root() string {
	return "/prefund"
}

// @Summary Get prefund state
// @Description Current state of the unstake.it pool used to prefund stake account splits.
// @Tags prefund
// @Produce json
// @Success 200 {object} httputil.Response{data=stakedex.PrefundInfo}
// @Failure 503 {object} httputil.Response "Prefund pool not synced"
// @Router /api/v1/prefund [get]
func (h *PrefundHandler) getPrefund(c *gin.Context) {
	info, err := h.engine.Prefund()
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.Success(c, info)
}
