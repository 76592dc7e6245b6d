package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"userhub/api/internal/cache"
	"userhub/api/internal/config"
	"userhub/api/internal/mail"
	"userhub/api/internal/middleware"
	"userhub/api/internal/repository"
	"userhub/api/internal/service"
	"userhub/api/internal/storage"
)

type HandlerSet struct {
	log             zerolog.Logger
	cfg             *config.AppConfig
	codeService     *service.CodeService
	authService     *service.AuthService
	userService     *service.UserService
	roleService     *service.RoleService
	settingsService *service.SettingsService
	db              *pgxpool.Pool
	cache           *redis.Client
	store           *storage.ObjectStore
	users           *repository.UserRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	logRepo := repository.NewLoginLogRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	var notifier service.Notifier
	if cfg.Mail.SendGridAPIKey != "" {
		notifier = mail.NewSendGridNotifier(cfg.Mail, log)
	} else {
		notifier = mail.NewLogNotifier(log)
	}

	var failures service.FailureCounter
	if redisClient != nil {
		failures = cache.NewLoginThrottle(redisClient)
	}

	codes := service.NewCodeService(codeRepo, userRepo, notifier, cfg, log)
	auth := service.NewAuthService(userRepo, sessionRepo, codes, logRepo, failures, cfg, log)
	users := service.NewUserService(userRepo, roleRepo, log)
	roles := service.NewRoleService(roleRepo, userRepo, log)
	settings := service.NewSettingsService(settingRepo, log)

	return HandlerSet{
		log:             log,
		cfg:             cfg,
		codeService:     codes,
		authService:     auth,
		userService:     users,
		roleService:     roles,
		settingsService: settings,
		db:              db,
		cache:           redisClient,
		store:           store,
		users:           userRepo,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authn := middleware.Auth(h.cfg, h.users)
	perm := func(resource, action string) gin.HandlerFunc {
		return middleware.RequirePermissions(middleware.Permission{Resource: resource, Action: action})
	}

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/send-code", h.SendCode)
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/refresh", h.Refresh)

		protected := v1.Group("/auth")
		protected.Use(authn)
		protected.POST("/logout", h.Logout)
		protected.GET("/profile", h.Profile)

		users := v1.Group("/users")
		users.Use(authn)
		users.GET("", perm("users", "read"), h.ListUsers)
		users.GET("/stats", perm("users", "read"), h.UserStats)
		users.GET("/:id", perm("users", "read"), h.GetUser)
		users.POST("", perm("users", "create"), h.CreateUser)
		users.PATCH("/:id", perm("users", "update"), h.UpdateUser)
		users.PATCH("/:id/status", perm("users", "update"), h.UpdateUserStatus)
		users.DELETE("/:id", perm("users", "delete"), h.DeleteUser)
		users.PUT("/me/avatar", h.UploadAvatar)

		roles := v1.Group("/roles")
		roles.Use(authn)
		roles.GET("", perm("roles", "read"), h.ListRoles)
		roles.GET("/active", perm("roles", "read"), h.ListActiveRoles)
		roles.GET("/permissions", perm("roles", "read"), h.AvailablePermissions)
		roles.GET("/:id", perm("roles", "read"), h.GetRole)
		roles.POST("", perm("roles", "create"), h.CreateRole)
		roles.PATCH("/:id", perm("roles", "update"), h.UpdateRole)
		roles.PUT("/:id/permissions", perm("roles", "update"), h.UpdateRolePermissions)
		roles.DELETE("/:id", perm("roles", "delete"), h.DeleteRole)

		settings := v1.Group("/settings")
		settings.Use(authn)
		settings.GET("", perm("settings", "read"), h.GetSettings)
		settings.PUT("", perm("settings", "update"), h.UpdateSettings)
	}
}
