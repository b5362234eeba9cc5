package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/geocoder89/foodservice/internal/http/handlers"
	"github.com/geocoder89/foodservice/internal/http/middlewares"
	"github.com/geocoder89/foodservice/internal/observability"
	"github.com/geocoder89/foodservice/internal/throttle"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Log      *slog.Logger
	Env      string
	Accounts handlers.AccountService
	Verifier middlewares.TokenVerifier

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// RateCounter backs the per-IP limit on the auth routes.
	RateCounter    throttle.Counter
	AuthRateLimit  int
	AuthRateWindow time.Duration

	CORSOrigins []string
	ReadyChecks map[string]handlers.Check
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("foodservice-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders(deps.Env != "dev" && deps.Env != "test"))
	r.Use(middlewares.CORSMiddleware(deps.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.DocsPage)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(deps.Verifier, deps.Prom)

	counter := deps.RateCounter
	if counter == nil {
		counter = throttle.NewMemoryCounter()
	}
	authLimiter := middlewares.NewRateLimiter(counter, "auth", deps.AuthRateLimit, deps.AuthRateWindow)

	ah := handlers.NewAuthHandler(deps.Accounts)
	authGroup := r.Group("/auth", middlewares.RequireJSON(), authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/sign-up", ah.SignUp)
	authGroup.POST("/sign-in", ah.SignIn)

	// change-password checks the current password, so it is a guessing target too
	passwordLimiter := middlewares.NewRateLimiter(counter, "password", deps.AuthRateLimit, deps.AuthRateWindow)

	uh := handlers.NewUsersHandler(deps.Accounts)
	users := r.Group("/users", authMW.RequireAuth())
	users.GET("/me", uh.Me)
	users.PUT("/me/password",
		passwordLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
		middlewares.RequireJSON(),
		uh.ChangePassword,
	)
	users.GET("", uh.List)
	users.GET("/:id", uh.Get)
	users.PUT("/:id", middlewares.RequireJSON(), uh.Update)
	users.DELETE("/:id", uh.Delete)
	users.POST("/:id/roles/admin", authMW.RequireRole(user.RoleAdmin), uh.GrantAdmin)

	return r
}
