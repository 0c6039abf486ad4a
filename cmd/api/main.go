package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/handler"
	"github.com/lunchtableguy/mmeg-sub000/internal/metrics"
	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
	"github.com/lunchtableguy/mmeg-sub000/internal/ws"
	"github.com/lunchtableguy/mmeg-sub000/pkg/config"
	"github.com/lunchtableguy/mmeg-sub000/pkg/database"
	"github.com/lunchtableguy/mmeg-sub000/pkg/jwt"
	"github.com/lunchtableguy/mmeg-sub000/pkg/logger"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic("build logger: " + err.Error())
	}
	defer log.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN(), log, cfg.IsProduction())
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("database handle", zap.Error(err))
	}

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	artistRepo := repository.NewArtistRepo(db)
	pageRepo := repository.NewPageRepo(db)
	announcementRepo := repository.NewAnnouncementRepo(db)
	forumRepo := repository.NewForumRepo(db)
	consentRepo := repository.NewConsentRepo(db)

	tokens := jwt.NewManager(cfg.Secret(), cfg.JWTTTL)
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo, log)
	artistService := service.NewArtistService(artistRepo)
	pageService := service.NewPageService(pageRepo)
	announcementService := service.NewAnnouncementService(announcementRepo, wsHub)
	forumService := service.NewForumService(forumRepo, wsHub)
	consentService := service.NewConsentService(consentRepo, service.ConsentOptions{
		Version:     cfg.ConsentVersion,
		AuditPolicy: cfg.ConsentAuditPolicy,
		IPSalt:      cfg.ConsentIPSalt,
	})

	if cfg.SeedOwnerEmail != "" {
		created, err := userService.SeedOwner(context.Background(), cfg.SeedOwnerEmail, cfg.SeedOwnerPassword)
		if err != nil {
			log.Warn("seed owner", zap.Error(err))
		} else if !created {
			log.Debug("users exist, owner seed skipped")
		}
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler()
	artistHandler := handler.NewArtistHandler(artistService)
	pageHandler := handler.NewPageHandler(pageService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)
	forumHandler := handler.NewForumHandler(forumService)
	consentHandler := handler.NewConsentHandler(consentService, m, log, handler.ConsentCookieOptions{
		Secure:       cfg.IsProduction(),
		RegionHeader: cfg.ConsentRegionHeader,
	})
	healthHandler := handler.NewHealthHandler(sqlDB)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:                 "MMEG Site API",
		ProxyHeader:             cfg.ProxyHeader,
		EnableTrustedProxyCheck: len(cfg.TrustedProxies) > 0,
		TrustedProxies:          cfg.TrustedProxies,
	})

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: !strings.Contains(cfg.CORSOrigins, "*"),
	}))

	app.Get("/healthz", healthHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	requireAuth := middleware.RequireAuth(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	can := func(p authz.Permission) fiber.Handler { return middleware.RequirePermission(p, m) }

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)
	auth.Get("/me", requireAuth, userHandler.Me)

	// Consent (optional token links the visitor to a user)
	consentLimiter := handler.ConsentLimiter(cfg.ConsentRateLimit)
	api.Get("/consent", optionalAuth, consentHandler.GetConsent)
	api.Post("/consent", consentLimiter, optionalAuth, consentHandler.SubmitConsent)
	api.Get("/consent/events", requireAuth, can(authz.ConsentAuditView), consentHandler.ListEvents)

	api.Get("/artists", artistHandler.ListPublic)
	api.Get("/artists/:slug", artistHandler.GetPublic)
	api.Get("/pages/:slug", pageHandler.GetPublished)
	api.Get("/announcements", announcementHandler.ListPublished)
	api.Get("/forum", optionalAuth, forumHandler.ListPosts)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", requireAuth)

	// User Management Routes
	protected.Get("/users", can(authz.UsersView), userHandler.GetUsers)
	protected.Get("/users/:id", can(authz.UsersView), userHandler.GetUser)
	protected.Post("/users", can(authz.UsersCreate), userHandler.CreateUser)
	protected.Put("/users/:id", can(authz.UsersEdit), userHandler.UpdateUser)
	protected.Delete("/users/:id", can(authz.UsersDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/role", can(authz.UsersRoles), userHandler.ChangeRole)

	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/permissions", roleHandler.GetPermissions)

	// Artist profiles; update is ownership-scoped in the service
	protected.Get("/manage/artists", artistHandler.ListManaged)
	protected.Post("/manage/artists", can(authz.ArtistsCreate), artistHandler.CreateArtist)
	protected.Put("/manage/artists/:id", artistHandler.UpdateArtist)
	protected.Delete("/manage/artists/:id", can(authz.ArtistsDelete), artistHandler.DeleteArtist)

	protected.Get("/manage/pages", can(authz.PagesView), pageHandler.ListPages)
	protected.Post("/manage/pages", can(authz.PagesCreate), pageHandler.CreatePage)
	protected.Put("/manage/pages/:id", can(authz.PagesEdit), pageHandler.UpdatePage)
	protected.Put("/manage/pages/:id/publish", can(authz.PagesPublish), pageHandler.SetPublished)
	protected.Delete("/manage/pages/:id", can(authz.PagesDelete), pageHandler.DeletePage)

	protected.Get("/manage/announcements", middleware.RequireRole(authz.RoleAccountExecutive, m), announcementHandler.ListAll)
	protected.Post("/manage/announcements", can(authz.AnnouncementsCreate), announcementHandler.Create)
	protected.Put("/manage/announcements/:id", can(authz.AnnouncementsEdit), announcementHandler.Update)
	protected.Delete("/manage/announcements/:id", can(authz.AnnouncementsDelete), announcementHandler.Delete)

	protected.Post("/forum", can(authz.MessagesSend), forumHandler.CreatePost)
	protected.Put("/forum/:id/moderate", can(authz.ForumModerate), forumHandler.ModeratePost)
	protected.Delete("/forum/:id", forumHandler.DeletePost)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Add(c) {
			return
		}
		defer wsHub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	log.Info("api started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
	log.Info("server exited")
}
