package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/stakedex-engine/internal/http/httputil"
	"github.com/hxuan190/stakedex-engine/internal/stakedex"
)

type PoolHandler struct {
	engine QuoteEngine
}

func NewPoolHandler(engine QuoteEngine) *PoolHandler {
	return &PoolHandler{engine: engine}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPools)
	pub.GET("/:address", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

const (
	capabilityWithdraw = "withdraw"
	capabilityDeposit  = "deposit"

	defaultPoolLimit = 100
	maxPoolLimit     = 500
)

// PoolListResponse is one page of stake pools.
type PoolListResponse struct {
	Pools []stakedex.PoolInfo `json:"pools"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Pages int                 `json:"pages"`

	// Epoch the sync flags are computed against
	Epoch uint64 `json:"epoch"`
}

// @Summary List stake pools
// @Description Pages through every loaded stake pool with its capabilities and sync state.
// @Description A pool is synced when it has run its update for the current epoch.
// @Tags pools
// @Produce json
// @Param page query int false "Page number, starting at 1" default(1)
// @Param limit query int false "Page size, capped at 500" default(100)
// @Param capability query string false "Only pools that support this operation" Enums(withdraw, deposit)
// @Param synced query bool false "Only pools updated this epoch"
// @Success 200 {object} httputil.Response{data=PoolListResponse}
// @Failure 400 {object} httputil.Response "Unknown capability"
// @Router /api/v1/pools [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPoolLimit)))
	page = max(page, 1)
	if limit < 1 {
		limit = defaultPoolLimit
	}
	limit = min(limit, maxPoolLimit)

	capability := c.Query("capability")
	if capability != "" && capability != capabilityWithdraw && capability != capabilityDeposit {
		httputil.BadRequest(c, "capability must be withdraw or deposit")
		return
	}
	syncedOnly := c.Query("synced") == "true"

	pools := make([]stakedex.PoolInfo, 0)
	for _, p := range h.engine.Pools() {
		if capability == capabilityWithdraw && !p.WithdrawStake {
			continue
		}
		if capability == capabilityDeposit && !p.DepositStake {
			continue
		}
		if syncedOnly && !p.Synced {
			continue
		}
		pools = append(pools, p)
	}

	total := len(pools)
	offset := min((page-1)*limit, total)
	end := min(offset+limit, total)

	httputil.Success(c, PoolListResponse{
		Pools: pools[offset:end],
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
		Epoch: h.engine.Epoch(),
	})
}

// @Summary Get stake pool
// @Tags pools
// @Produce json
// @Param address path string true "Pool main state account (base58)" example("Jito4APyf642JPZPx3hGc6WWJ8zPKtRbRs4P815Awbb")
// @Success 200 {object} httputil.Response{data=stakedex.PoolInfo}
// @Failure 404 {object} httputil.Response "Pool not loaded"
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address := c.Param("address")
	for _, pool := range h.engine.Pools() {
		if pool.MainStateKey == address {
			httputil.Success(c, pool)
			return
		}
	}
	httputil.NotFound(c, "pool not found")
}
