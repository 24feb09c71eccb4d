package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"compliflow/internal/analytics"
	"compliflow/internal/caching"
	"compliflow/internal/handlers"
	"compliflow/internal/jobs"
	"compliflow/internal/jobs/background"
	"compliflow/internal/middleware"
	"compliflow/internal/models"
	"compliflow/internal/repositories"
	"compliflow/internal/services"
	"compliflow/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	reportBucket := os.Getenv("REPORT_BUCKET")
	if reportBucket == "" {
		reportBucket = "compliflow-reports"
	}

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), reportBucket); err != nil {
		log.Printf("WARNING: report bucket check failed: %v", err)
	}

	// Repositories
	statusRepo := repositories.NewStatusRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	versionRepo := repositories.NewAuditVersionRepo(pool)
	formRepo := repositories.NewAuditFormRepo(pool)
	templateRepo := repositories.NewFormTemplateRepo(pool)
	issueRepo := repositories.NewIssueRepo(pool)
	activityRepo := repositories.NewActivityLogRepo(pool)
	outletRepo := repositories.NewOutletRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	requirementRepo := repositories.NewRequirementRepo(pool)

	// The workflow never compares hard-coded status ids; everything goes
	// through the catalog resolved here.
	statuses, err := statusRepo.ResolveCatalog(context.Background())
	if err != nil {
		log.Fatalf("Failed to resolve status catalog: %v", err)
	}

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// AI analyzer is optional; without a key, submissions skip analysis.
	var analyzer services.AIAnalyzer
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		analyzer = services.NewOpenAIAnalyzer(apiKey, os.Getenv("OPENAI_MODEL"))
	}

	// Services
	replicator := services.NewFormReplicator(statuses)
	reviewSvc := services.NewReviewService(pool, statuses, statusRepo, auditRepo, replicator, cacheSvc)
	auditSvc := services.NewAuditService(pool, statuses, auditRepo, versionRepo, formRepo, statusRepo, outletRepo, activityRepo, cacheSvc)
	formSvc := services.NewFormService(statuses, formRepo, templateRepo, auditRepo, activityRepo, analyzer)
	issueSvc := services.NewIssueService(statuses, issueRepo, formRepo, activityRepo)
	historySvc := services.NewHistoryService(auditRepo, versionRepo, formRepo, issueRepo, activityRepo)
	reportSvc := services.NewReportService(historySvc, storageSvc, reportBucket)
	analyticsSvc := analytics.NewService(auditRepo, versionRepo, issueRepo, cacheSvc)
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, 3600, 30*24*3600)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo)
	userHandlers := handlers.NewUserHandlers(userRepo)
	auditHandlers := handlers.NewAuditHandlers(auditSvc, reviewSvc, historySvc)
	formHandlers := handlers.NewFormHandlers(formSvc)
	issueHandlers := handlers.NewIssueHandlers(issueSvc)
	outletHandlers := handlers.NewOutletHandlers(outletRepo)
	templateHandlers := handlers.NewTemplateHandlers(templateRepo)
	requirementHandlers := handlers.NewRequirementHandlers(requirementRepo)
	reportHandlers := handlers.NewReportHandlers(reportSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(analyticsSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storageSvc, reportBucket)

	// Background jobs
	issueAlerts := jobs.NewIssueAlertService(issueSvc)
	scheduler, err := background.NewJobScheduler(analyticsSvc, issueAlerts)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.Readiness)

	// API routes
	versionMiddleware := middleware.NewVersionMiddleware()
	v1 := versionMiddleware.VersionRoute(e, "v1")

	// Authentication routes (no JWT required for signup/login)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))

	reviewers := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// User routes
	protected.GET("/me", authHandlers.Me)
	protected.GET("/users", userHandlers.ListUsers, adminOnly)
	protected.GET("/users/:id", userHandlers.GetUser, adminOnly)
	protected.PUT("/users/:id", userHandlers.UpdateUser, adminOnly)
	protected.DELETE("/users/:id", userHandlers.DeleteUser, adminOnly)

	// Audit routes
	protected.GET("/audits", auditHandlers.ListAudits)
	protected.POST("/audits", auditHandlers.CreateAudit)
	protected.GET("/audits/history", auditHandlers.History, reviewers)
	protected.GET("/audits/:id", auditHandlers.GetAudit)
	protected.PUT("/audits/:id/status", auditHandlers.UpdateAuditStatus, reviewers)
	protected.PUT("/audits/:id/progress", auditHandlers.UpdateProgress)
	protected.DELETE("/audits/:id", auditHandlers.DeleteAudit)
	protected.GET("/audits/:id/rejected-forms-check", auditHandlers.CheckRejectedForms)
	protected.GET("/audits/:id/issues", issueHandlers.ListByAudit)
	protected.POST("/audits/:id/forms", formHandlers.AttachForm)

	// Form routes
	protected.GET("/forms/:id", formHandlers.GetForm)
	protected.PUT("/forms/:id/submit", formHandlers.SubmitForm)
	protected.PUT("/forms/:id/review", formHandlers.ReviewForm, reviewers)
	protected.GET("/forms/:id/current-audit", formHandlers.CurrentAudit)

	// Issue routes
	protected.POST("/issues", issueHandlers.RaiseIssue, reviewers)
	protected.GET("/issues/overdue", issueHandlers.ListOverdue, reviewers)
	protected.PUT("/issues/:id/resolve", issueHandlers.ResolveIssue, reviewers)
	protected.POST("/issues/:id/actions", issueHandlers.AddCorrectiveAction)
	protected.PUT("/actions/:id/complete", issueHandlers.CompleteAction)

	// Reference data routes
	protected.GET("/outlets", outletHandlers.ListOutlets)
	protected.POST("/outlets", outletHandlers.CreateOutlet, adminOnly)
	protected.GET("/outlets/:id", outletHandlers.GetOutlet)
	protected.PUT("/outlets/:id", outletHandlers.UpdateOutlet, adminOnly)
	protected.DELETE("/outlets/:id", outletHandlers.DeleteOutlet, adminOnly)

	protected.GET("/form-templates", templateHandlers.ListTemplates)
	protected.POST("/form-templates", templateHandlers.CreateTemplate, adminOnly)
	protected.GET("/form-templates/:id", templateHandlers.GetTemplate)
	protected.PUT("/form-templates/:id", templateHandlers.UpdateTemplate, adminOnly)
	protected.DELETE("/form-templates/:id", templateHandlers.DeleteTemplate, adminOnly)

	protected.GET("/requirements", requirementHandlers.ListRequirements)
	protected.POST("/requirements", requirementHandlers.CreateRequirement, adminOnly)
	protected.GET("/requirements/:id", requirementHandlers.GetRequirement)
	protected.PUT("/requirements/:id", requirementHandlers.UpdateRequirement, adminOnly)
	protected.DELETE("/requirements/:id", requirementHandlers.DeleteRequirement, adminOnly)

	// Reporting routes
	protected.GET("/dashboard", dashboardHandlers.GetDashboard, reviewers)
	protected.POST("/reports/history", reportHandlers.GenerateHistoryReport, reviewers)

	// Start server with graceful shutdown
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	go func() {
		log.Printf("Compliflow server v%s starting on port %d", version, port)
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
