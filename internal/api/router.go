package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/growthdesk/storefront/docs"
	"github.com/growthdesk/storefront/internal/api/handler"
	"github.com/growthdesk/storefront/internal/api/middleware"
	"github.com/growthdesk/storefront/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Catalog     ports.CatalogService
	Users       ports.UserService
	Orders      ports.OrderService
	Readiness   map[string]handler.Pinger
	OrderLimit  *middleware.RateLimiter
	JWTSecret   string
	ServiceName string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                       Storefront API
// @version                     1.0
// @description                 Catalog, users and order lifecycle of the marketing-services storefront.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.Tracing(deps.ServiceName))
	e.Use(httpMetrics())

	// --- Handlers ---
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	userHandler := handler.NewUserHandler(deps.Users)
	orderHandler := handler.NewOrderHandler(deps.Orders)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// --- Public catalog ---
	catalog := v1.Group("/catalog")
	catalog.GET("/services", catalogHandler.ListActive)
	catalog.GET("/services/:id", catalogHandler.GetActive)

	authed := []echo.MiddlewareFunc{
		middleware.Auth(deps.JWTSecret),
		middleware.ResolveCaller(deps.Users),
	}

	// --- Users ---
	users := v1.Group("/users", authed...)
	users.POST("/sync", userHandler.Sync)
	users.GET("/me", userHandler.Me)

	// --- Orders ---
	orders := v1.Group("/orders", authed...)
	if deps.OrderLimit != nil {
		orders.POST("", orderHandler.Create, deps.OrderLimit.Middleware())
	} else {
		orders.POST("", orderHandler.Create)
	}
	orders.GET("/mine", orderHandler.Mine)
	orders.GET("/stats/mine", orderHandler.MyStats)
	orders.GET("/:id", orderHandler.Get)

	// --- Admin console ---
	admin := v1.Group("/admin", append(authed, middleware.RequireAdmin())...)
	admin.GET("/services", catalogHandler.AdminList)
	admin.POST("/services", catalogHandler.CreateService)
	admin.GET("/services/:id", catalogHandler.AdminGet)
	admin.PATCH("/services/:id", catalogHandler.UpdateService)
	admin.POST("/services/:id/toggle", catalogHandler.ToggleService)
	admin.DELETE("/services/:id", catalogHandler.DeleteService)
	admin.POST("/services/:id/packages", catalogHandler.CreatePackage)
	admin.PATCH("/packages/:id", catalogHandler.UpdatePackage)
	admin.DELETE("/packages/:id", catalogHandler.DeletePackage)
	admin.GET("/orders", orderHandler.AdminList)
	admin.GET("/orders/stats", orderHandler.AdminStats)
	admin.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
	admin.PATCH("/users/:id/status", userHandler.SetStatus)
	admin.GET("/users/:id/orders", orderHandler.UserOrders)

	return e
}

// httpMetrics registers the request collectors once per process.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("storefront")
})

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
