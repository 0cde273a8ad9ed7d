package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/transport/http/handlers"
	"github.com/alvarohurtadobo/iot-backend/internal/transport/http/middleware"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Users    *usecase.UserService
	Roles    *usecase.RoleService
	Fleet    *usecase.FleetService
	Readings *usecase.ReadingService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
}

// DatabaseChecker exposes readiness behaviour for database connections,
// satisfied by *pgxpool.Pool.
type DatabaseChecker = handlers.ReadinessChecker

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthHandler := handlers.NewHealthHandler(deps.Database)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(authGroup, buildLoginMiddlewares(deps)...)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware)
		handlers.NewUserHandler(deps.Services.Users).RegisterRoutes(userGroup)

		roleGroup := api.Group("/roles")
		roleGroup.Use(authMiddleware)
		handlers.NewRoleHandler(deps.Services.Roles).RegisterRoutes(roleGroup)

		fleetGroup := api.Group("")
		fleetGroup.Use(authMiddleware)
		handlers.NewFleetHandler(deps.Services.Fleet).RegisterRoutes(fleetGroup)
		handlers.NewDeviceHandler(deps.Services.Fleet).RegisterRoutes(fleetGroup)
		handlers.NewSensorHandler(deps.Services.Fleet).RegisterRoutes(fleetGroup)
		handlers.NewReadingHandler(deps.Services.Readings).RegisterRoutes(fleetGroup)
	}

	return r
}

// buildLoginMiddlewares adds a per-client-IP sliding window in front of the
// login handler. The auth service applies its own per-email limit before
// touching the credential store.
func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.RequestsPerWindow
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
