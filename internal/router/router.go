package router // package router wires middleware and routes onto Echo

import (
    "database/sql"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/foodbridge/distribution-api/internal/checkin"
    "github.com/foodbridge/distribution-api/internal/config"
    "github.com/foodbridge/distribution-api/internal/handler"
    "github.com/foodbridge/distribution-api/internal/logger"
    "github.com/foodbridge/distribution-api/internal/middleware"
    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
    "github.com/foodbridge/distribution-api/internal/service"
)

// New builds the Echo instance with all repositories, engine components and
// routes wired together.
func New(cfg config.Config, db *sql.DB, rdb *redis.Client, publisher *service.Publisher) *echo.Echo {
    e := echo.New()
    e.HideBanner = true

    e.Use(echomw.Recover())
    e.Use(logger.Middleware())
    e.Use(middleware.Metrics())

    // Repositories.
    users := repository.NewUserRepository(db)
    tokens := repository.NewTokenRepository(db)
    locations := repository.NewLocationRepository(db)
    tenants := repository.NewTenantRepository(db)
    assoc := repository.NewAssociationRepository(db)
    events := repository.NewCheckInRepository(db)
    shifts := repository.NewShiftRepository(db)

    // Engine.
    rec := checkin.NewReconciler(assoc)
    ledger := checkin.NewLedger(db, events, locations, shifts, rec, cfg.ScanDupWindow)
    tracker := checkin.NewTracker(db, shifts, events, rec, time.Duration(cfg.ShiftMaxHours)*time.Hour)
    classifier := checkin.NewClassifier(users, events)

    // Handlers.
    health := handler.NewHealthHandler(db)
    auth := handler.NewAuthHandler(cfg, users, tokens, tracker)
    scan := handler.NewScanHandler(cfg, ledger, users, publisher)
    self := handler.NewSelfHandler(cfg, users, events, tracker)
    reports := handler.NewReportHandler(users, events, classifier)
    admin := handler.NewAdminHandler(locations, tenants)

    rlCfg := config.LoadRateLimitConfig()
    cacheCfg := config.LoadCacheConfig()
    jwtAuth := middleware.JWTAuth(cfg.JWTSecret)
    baseLimit := middleware.RateLimit(rdb, rlCfg, 0, 0)
    scanLimit := middleware.RateLimit(rdb, rlCfg, rlCfg.ScanRPS, rlCfg.ScanBurst)

    e.GET("/healthz", health.Check)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

    v1 := e.Group("/v1")

    authGroup := v1.Group("/auth", baseLimit)
    authGroup.POST("/register", auth.Register)
    authGroup.POST("/login", auth.Login)
    authGroup.POST("/refresh", auth.Refresh)
    authGroup.POST("/refresh-access", auth.RefreshAccess)
    authGroup.POST("/logout", auth.Logout, jwtAuth)

    v1.GET("/me", auth.Me, jwtAuth)

    scanGroup := v1.Group("/scan", jwtAuth,
        middleware.RequireRoles(model.RoleWorker, model.RoleAdmin),
        middleware.RequireOnDuty(), scanLimit)
    scanGroup.POST("", scan.ScanQR)
    scanGroup.POST("/phone", scan.ScanPhone)
    scanGroup.POST("/approve", scan.Approve)

    selfGroup := v1.Group("/self", jwtAuth, baseLimit)
    selfGroup.POST("/duty", self.SetDuty)
    selfGroup.GET("/status", self.Status)

    reportGroup := v1.Group("/reports", jwtAuth,
        middleware.RequireRoles(model.RoleWorker, model.RoleAdmin),
        baseLimit, middleware.ResponseCache(rdb, cacheCfg))
    reportGroup.GET("/participants", reports.Participants)
    reportGroup.GET("/summary", reports.Summary)

    v1.GET("/locations", admin.ListLocations, jwtAuth)
    v1.GET("/tenants", admin.ListTenants, jwtAuth)

    adminGroup := v1.Group("/admin", jwtAuth, middleware.RequireRoles(model.RoleAdmin))
    adminGroup.POST("/locations", admin.CreateLocation)
    adminGroup.POST("/tenants", admin.CreateTenant)
    adminGroup.POST("/locations/:id/tenants", admin.LinkTenant)

    return e
}
