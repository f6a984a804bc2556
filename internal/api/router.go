package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/minicrm/crm-api/docs"
	"github.com/minicrm/crm-api/internal/api/handler"
	"github.com/minicrm/crm-api/internal/api/middleware"
	"github.com/minicrm/crm-api/internal/core/authz"
	"github.com/minicrm/crm-api/internal/core/ports"
	"github.com/minicrm/crm-api/pkg/logger"
)

// RouterOptions carries everything NewRouter wires together.
type RouterOptions struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Customers ports.CustomerService
	Leads     ports.LeadService

	Tokens middleware.TokenParser
	Logger zerolog.Logger

	// Prefix mounts the API routes, e.g. "/api".
	Prefix string
	// AllowOrigins lists the origins browsers may call from. Empty allows any.
	AllowOrigins []string
	// Readiness lists the dependency probes behind /health/ready.
	Readiness map[string]handler.Check
	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry
}

// route is one entry of the API route table. An empty op marks a public route.
type route struct {
	method string
	path   string
	op     authz.Operation
	handle echo.HandlerFunc
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestScopedLogger(opts.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: allowOrigins(opts.AllowOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler()
	e.GET("/", health.Root)
	e.GET("/health", health.Liveness)                                             // liveness  – is the process alive?
	e.GET("/health/ready", handler.NewReadinessHandler(opts.Readiness).Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API routes ---
	gate := middleware.Auth(opts.Tokens)
	group := e.Group(opts.Prefix)
	for _, r := range routes(opts) {
		if r.op == "" {
			group.Add(r.method, r.path, r.handle)
			continue
		}
		group.Add(r.method, r.path, r.handle, gate, middleware.Authorize(r.op))
	}

	return e
}

func routes(opts RouterOptions) []route {
	auth := handler.NewAuthHandler(opts.Auth)
	users := handler.NewUserHandler(opts.Users)
	customers := handler.NewCustomerHandler(opts.Customers)
	leads := handler.NewLeadHandler(opts.Leads)

	return []route{
		{http.MethodPost, "/users/register", "", auth.Register},
		{http.MethodPost, "/users/login", "", auth.Login},
		{http.MethodPost, "/users/admin/login", "", auth.AdminLogin},
		{http.MethodGet, "/users", authz.UserList, users.List},

		{http.MethodPost, "/customers", authz.CustomerCreate, customers.Create},
		{http.MethodGet, "/customers", authz.CustomerList, customers.List},
		{http.MethodGet, "/customers/:id", authz.CustomerGet, customers.Get},
		{http.MethodPut, "/customers/:id", authz.CustomerUpdate, customers.Update},
		{http.MethodDelete, "/customers/:id", authz.CustomerDelete, customers.Delete},

		{http.MethodPost, "/leads", authz.LeadCreate, leads.Create},
		{http.MethodGet, "/leads", authz.LeadList, leads.List},
		{http.MethodGet, "/leads/stats", authz.LeadStats, leads.Stats},
		{http.MethodPut, "/leads/:id", authz.LeadUpdate, leads.Update},
		{http.MethodDelete, "/leads/:id", authz.LeadDelete, leads.Delete},
	}
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// requestScopedLogger puts a logger tagged with the request id into the
// request context, where services and the error handler pick it up.
func requestScopedLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logger.WithRequest(base, c.Response().Header().Get(echo.HeaderXRequestID), req.Method, c.Path())
			c.SetRequest(req.WithContext(logger.IntoContext(req.Context(), l)))
			return next(c)
		}
	}
}

// requestLogger emits one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
