package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/cache"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/database"
	"github.com/triumph-atlantic/matrix-api/internal/datawarehouse"
	"github.com/triumph-atlantic/matrix-api/internal/http/handler"
	"github.com/triumph-atlantic/matrix-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/triumph-atlantic/matrix-api/docs" // Import generated swagger docs
)

const readinessTimeout = 5 * time.Second

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Organization *handler.OrganizationHandler
	Visibility   *handler.VisibilityHandler
	Company      *handler.CompanyHandler
	Record       *handler.RecordHandler
	TradeSwap    *handler.TradeSwapHandler
	Import       *handler.ImportHandler
}

// Dependencies are probed by the health endpoints. Warehouse and Cache may be nil.
type Dependencies struct {
	DB        *gorm.DB
	Warehouse *datawarehouse.Client
	Cache     cache.Store
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	deps            Dependencies
	authMiddleware  *auth.Middleware
	orgFilter       *middleware.OrgFilterMiddleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	handlers        Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	deps Dependencies,
	authMiddleware *auth.Middleware,
	orgFilter *middleware.OrgFilterMiddleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		deps:            deps,
		authMiddleware:  authMiddleware,
		orgFilter:       orgFilter,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		handlers:        handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Get("/organizations", h.Organization.ListOrganizations)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.TagOrganization)
			r.Use(rt.orgFilter.Filter)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.auditMiddleware.Audit)

			r.Get("/auth/me", h.Organization.Me)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", h.Visibility.ListCompanies)
				r.Post("/", h.Company.CreateCompany)
				r.Get("/{slug}", h.Company.GetCompany)
				r.Put("/{slug}", h.Company.UpdateCompany)
				r.Put("/{slug}/contractors", h.Company.AssignContractors)
				r.Get("/{slug}/work-summary", h.Company.GetWorkSummary)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", h.Visibility.ListLocations)
				r.Post("/", h.Record.CreateLocation)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", h.Visibility.ListContacts)
				r.Post("/", h.Record.CreateContact)
				r.Post("/{email}/touch", h.Record.TouchContact)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.Visibility.ListProjects)
				r.Post("/", h.Record.CreateProject)
			})

			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", h.Visibility.ListOpportunities)
				r.Post("/", h.Record.CreateOpportunity)
			})

			r.Route("/gifts", func(r chi.Router) {
				r.Get("/", h.Visibility.ListGifts)
				r.Post("/", h.Record.CreateGift)
			})

			r.Route("/referrals", func(r chi.Router) {
				r.Get("/", h.Visibility.ListReferrals)
				r.Post("/", h.Record.CreateReferral)
			})

			r.Get("/changelog", h.Visibility.ListChangeLog)
			r.Get("/trade-swap/candidates", h.TradeSwap.ListCandidates)

			r.Post("/imports/warehouse", h.Import.SyncWarehouse)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.deps.DB)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness checks every dependency. The warehouse is optional: a disabled
// warehouse is reported but never makes the service unready.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, rt.deps.DB); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.deps.Cache != nil {
		if _, err := rt.deps.Cache.Version(ctx, "tradeswap"); err != nil {
			rt.logger.Error("Cache health check failed", zap.Error(err))
			checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy", "driver": rt.cfg.Cache.Driver}
		}
	}

	warehouse := rt.deps.Warehouse.HealthCheck(ctx)
	checks["warehouse"] = warehouse
	if warehouse.Status == "unhealthy" {
		allHealthy = false
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
