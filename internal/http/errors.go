package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/http/httputil"
	"github.com/hxuan190/stakedex-engine/internal/prefund"
	"github.com/hxuan190/stakedex-engine/internal/stakedex"
)

func toHTTPError(err error) *common.HttpError {
	switch {
	case errors.Is(err, stakedex.ErrPoolNotFound):
		return common.HTTPErrorNotFound(err.Error())
	case errors.Is(err, stakedex.ErrUnsupported):
		return common.HTTPErrorBadRequest(err.Error())
	case errors.Is(err, stakedex.ErrNoQuote):
		return common.HTTPErrorUnprocessable(err.Error())
	case errors.Is(err, prefund.ErrNotInitialized):
		return common.HTTPErrorUnavailable(err.Error())
	default:
		return common.HTTPErrorFromDomain(err)
	}
}

func handleError(c *gin.Context, err error) {
	httputil.HTTPError(c, toHTTPError(err))
}
