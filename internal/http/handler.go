package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/stakedex-engine/internal/config"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/http/httputil"
	"github.com/hxuan190/stakedex-engine/internal/http/middlewares"
	"github.com/hxuan190/stakedex-engine/internal/stakedex"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

// QuoteEngine is what the API serves quotes from.
type QuoteEngine interface {
	Epoch() uint64
	Pools() []stakedex.PoolInfo
	WithdrawQuote(pool, voter solana.PublicKey, tokens uint64) (domain.WithdrawStakeQuote, error)
	DepositQuote(pool, voter solana.PublicKey, lamports uint64) (domain.DepositStakeQuote, error)
	Routes(pool solana.PublicKey, tokens uint64, withPrefund bool) ([]stakedex.Route, error)
	Prefund() (stakedex.PrefundInfo, error)
}

var _ QuoteEngine = (*stakedex.Engine)(nil)

type HTTPService struct {
	container.BaseDIInstance

	engine      QuoteEngine
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Start() error {
	r := NewRouter(svc.rateLimiter, svc.handlers...)

	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: r,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}

	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}
	zerolog.SetGlobalLevel(svc.conf.ZerologLevel())
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}

	svc.engine = c.Instance(stakedex.STAKEDEX_SERVICE).(*stakedex.Service).Engine()
	svc.rateLimiter = middlewares.NewRateLimiter(svc.conf.RateLimit, 2*svc.conf.RateLimit)

	svc.handlers = []httputil.IHttpHandler{
		NewPoolHandler(svc.engine),
		NewQuoteHandler(svc.engine),
		NewPrefundHandler(svc.engine),
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

// NewRouter wires middlewares, the swagger UI, the health and metrics endpoints
// and every handler under /api/v1.
func NewRouter(rateLimiter *middlewares.RateLimiter, handlers ...httputil.IHttpHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	if rateLimiter != nil {
		r.Use(rateLimiter.RateLimitMiddleware())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	setupHandlers(handlers, pub, priv, admin)
	return r
}

func setupHandlers(
	handlers []httputil.IHttpHandler,
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
