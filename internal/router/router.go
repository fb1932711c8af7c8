package router

import (
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/config"
	"github.com/agency73code/indigo-gestao-sub010/internal/handler"
	"github.com/agency73code/indigo-gestao-sub010/internal/infra"
	"github.com/agency73code/indigo-gestao-sub010/internal/middleware"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"
	"github.com/agency73code/indigo-gestao-sub010/internal/service"
	"github.com/agency73code/indigo-gestao-sub010/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	smtpCB *infra.CircuitBreaker,
	metrics *middleware.Metrics,
	dispatcher *worker.Dispatcher,
	attachments *infra.FileStore,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(metrics.Handler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	therapistRepo := repository.NewTherapistRepository(db)
	clientRepo := repository.NewClientRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	supervisionRepo := repository.NewSupervisionRepository(db)
	statementRepo := repository.NewStatementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(therapistRepo, rdb, metrics, cfg)
	clientSvc := service.NewClientService(clientRepo)
	sessionSvc := service.NewSessionService(sessionRepo, billingRepo, therapistRepo)
	billingSvc := service.NewBillingService(billingRepo, statementRepo, therapistRepo, attachments, dispatcher)
	reportSvc := service.NewReportService(sessionRepo)
	supervisionSvc := service.NewSupervisionService(supervisionRepo, therapistRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	therapistsH := handler.NewTherapistsHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	billingH := handler.NewBillingHandler(billingSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	supervisionH := handler.NewSupervisionHandler(supervisionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Therapist management is restricted by access level: reads need a
		// supervised clinician or above, writes need a director.
		v1.GET("/therapists", middleware.RequireLevel(2), therapistsH.List)
		v1.GET("/therapists/:id", middleware.RequireLevel(2), therapistsH.Get)
		therapists := v1.Group("/therapists", middleware.RequireLevel(6))
		{
			therapists.POST("", therapistsH.Create)
			therapists.PUT("/:id", therapistsH.Update)
			therapists.DELETE("/:id", therapistsH.Deactivate)
			therapists.PATCH("/:id/reactivate", therapistsH.Reactivate)
		}

		// Clients: ownership is enforced in the service layer, so any
		// authenticated therapist can hit the routes.
		clients := v1.Group("/clients")
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Deactivate)
			clients.PATCH("/:id/reactivate", clientsH.Reactivate)
			clients.PUT("/:id/anamnesis", clientsH.SaveAnamnesis)
			clients.GET("/:id/anamnesis", clientsH.GetAnamnesis)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionsH.Create)
			sessions.GET("", sessionsH.List)
			sessions.GET("/:id", sessionsH.Get)
		}

		v1.GET("/reports/sessions", reportsH.SessionReport)

		billing := v1.Group("/billing")
		{
			billing.POST("/entries", billingH.Create)
			billing.GET("/entries", billingH.List)
			billing.GET("/entries/:id", billingH.Get)
			billing.POST("/entries/:id/approve", middleware.RequireLevel(5), billingH.Approve)
			billing.POST("/entries/:id/reject", middleware.RequireLevel(5), billingH.Reject)
			billing.POST("/entries/:id/correct", billingH.Correct)
			billing.GET("/entries/:id/attachments/:attachment_id", billingH.DownloadAttachment)
			billing.POST("/bulk-approve", middleware.RequireLevel(5), billingH.BulkApprove)

			billing.POST("/statements", billingH.GenerateStatement)
			billing.GET("/statements", billingH.ListStatements)
			billing.GET("/statements/:id", billingH.GetStatement)
			billing.GET("/statements/:id/pdf", billingH.DownloadStatementPDF)
		}

		supervision := v1.Group("/supervision")
		{
			supervision.POST("", middleware.RequireLevel(5), supervisionH.Create)
			supervision.GET("", supervisionH.List)
			supervision.GET("/:id", supervisionH.Get)
			supervision.PUT("/:id", middleware.RequireLevel(5), supervisionH.Update)
			supervision.POST("/:id/end", middleware.RequireLevel(5), supervisionH.End)
			supervision.POST("/:id/archive", middleware.RequireLevel(5), supervisionH.Archive)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
