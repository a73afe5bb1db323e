package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/stakedex-engine/internal/http/httputil"
	"github.com/hxuan190/stakedex-engine/internal/stakedex"
)

type QuoteHandler struct {
	engine QuoteEngine
}

func NewQuoteHandler(engine QuoteEngine) *QuoteHandler {
	return &QuoteHandler{engine: engine}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/withdraw", h.getWithdrawQuote)
	pub.GET("/deposit", h.getDepositQuote)
	pub.GET("/routes", h.getRoutes)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// WithdrawQuoteRequest asks for the stake account received for burning pool tokens
type WithdrawQuoteRequest struct {
	// Stake pool main state account
	Pool string `form:"pool" binding:"required"`

	// Pool tokens to burn, in atomic units
	Tokens string `form:"tokens" binding:"required"`

	// Optional vote account to withdraw from; the pool's best validator is used when empty
	Voter string `form:"voter"`
}

// DepositQuoteRequest asks for the output of depositing a stake account
type DepositQuoteRequest struct {
	// Stake pool main state account
	Pool string `form:"pool" binding:"required"`

	// Total lamports of the stake account, rent-exempt reserve included
	Lamports string `form:"lamports" binding:"required"`

	// Vote account the stake is delegated to
	Voter string `form:"voter" binding:"required"`
}

// RoutesRequest asks for every withdraw-then-deposit route out of a pool
type RoutesRequest struct {
	Pool   string `form:"pool" binding:"required"`
	Tokens string `form:"tokens" binding:"required"`

	// Deduct the prefund split from each withdrawn stake account
	Prefund bool `form:"prefund"`
}

type RoutesResponse struct {
	Routes []stakedex.Route `json:"routes"`
	Count  int              `json:"count"`
}

// @Summary Quote a stake withdrawal
// @Description Values burning pool tokens for a stake account split off one validator.
// @Description Without a voter the pool's best validator is used and an empty quote means none can serve the amount.
// @Tags quote
// @Produce json
// @Param pool query string true "Pool main state account (base58)"
// @Param tokens query string true "Pool tokens to burn, in atomic units" example("1000000000")
// @Param voter query string false "Vote account to withdraw from (base58)"
// @Success 200 {object} httputil.Response{data=domain.WithdrawStakeQuote}
// @Failure 400 {object} httputil.Response "Invalid pool, voter or amount"
// @Failure 404 {object} httputil.Response "Pool or validator not found"
// @Failure 422 {object} httputil.Response "Pool cannot serve the withdrawal"
// @Router /api/v1/quote/withdraw [get]
func (h *QuoteHandler) getWithdrawQuote(c *gin.Context) {
	var req WithdrawQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	pool, ok := parseKey(c, "pool", req.Pool)
	if !ok {
		return
	}
	var voter solana.PublicKey
	if req.Voter != "" {
		if voter, ok = parseKey(c, "voter", req.Voter); !ok {
			return
		}
	}
	tokens, ok := parseAmount(c, "tokens", req.Tokens)
	if !ok {
		return
	}

	quote, err := h.engine.WithdrawQuote(pool, voter, tokens)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.Success(c, quote)
}

// @Summary Quote a stake deposit
// @Description Values depositing a stake account delegated to voter into the pool.
// @Description An empty quote means the pool does not accept the deposit.
// @Tags quote
// @Produce json
// @Param pool query string true "Pool main state account (base58)"
// @Param lamports query string true "Total lamports of the stake account, rent-exempt reserve included" example("1002282880")
// @Param voter query string true "Vote account the stake is delegated to (base58)"
// @Success 200 {object} httputil.Response{data=domain.DepositStakeQuote}
// @Failure 400 {object} httputil.Response "Invalid pool, voter or amount"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Router /api/v1/quote/deposit [get]
func (h *QuoteHandler) getDepositQuote(c *gin.Context) {
	var req DepositQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	pool, ok := parseKey(c, "pool", req.Pool)
	if !ok {
		return
	}
	voter, ok := parseKey(c, "voter", req.Voter)
	if !ok {
		return
	}
	lamports, ok := parseAmount(c, "lamports", req.Lamports)
	if !ok {
		return
	}

	quote, err := h.engine.DepositQuote(pool, voter, lamports)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.Success(c, quote)
}

// @Summary Quote withdraw-then-deposit routes
// @Description Withdraws stake from every active validator of pool and deposits it into every other pool
// @Description that accepts it. Routes are sorted by output, best first.
// @Tags quote
// @Produce json
// @Param pool query string true "Pool to withdraw from (base58)"
// @Param tokens query string true "Pool tokens to burn, in atomic units" example("1000000000")
// @Param prefund query bool false "Deduct the prefund split from each withdrawn stake account"
// @Success 200 {object} httputil.Response{data=RoutesResponse}
// @Failure 400 {object} httputil.Response "Invalid pool or amount"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Router /api/v1/quote/routes [get]
func (h *QuoteHandler) getRoutes(c *gin.Context) {
	var req RoutesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	pool, ok := parseKey(c, "pool", req.Pool)
	if !ok {
		return
	}
	tokens, ok := parseAmount(c, "tokens", req.Tokens)
	if !ok {
		return
	}

	routes, err := h.engine.Routes(pool, tokens, req.Prefund)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.Success(c, RoutesResponse{Routes: routes, Count: len(routes)})
}

func parseKey(c *gin.Context, name, value string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		httputil.BadRequest(c, "invalid "+name+" address")
		return solana.PublicKey{}, false
	}
	return key, true
}

func parseAmount(c *gin.Context, name, value string) (uint64, bool) {
	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil || amount == 0 {
		httputil.BadRequest(c, "invalid "+name+": must be a positive integer")
		return 0, false
	}
	return amount, true
}
