package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"adminauth/internal/cache"
	"adminauth/internal/config"
	"adminauth/internal/mailqueue"
	"adminauth/internal/middleware"
	"adminauth/internal/models"
	"adminauth/internal/rbac"
	"adminauth/internal/repository"
	"adminauth/internal/service"
	"adminauth/internal/token"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	redis       *redis.Client
	snapshots   *rbac.SnapshotCache
	resolver    *rbac.Resolver
	tokens      *token.Manager
	authService *service.AuthService
	profiles    *service.ProfileService
	users       *service.UserService
	roles       *service.RoleService
	permissions *service.PermissionService
}

func NewHandlerSet(log zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, cfg *config.AppConfig) HandlerSet {
	db := repository.NewDB(pool)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	verificationRepo := repository.NewVerificationTokenRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	kv := cache.New(redisClient, log)
	snapshots := rbac.NewSnapshotCache(kv, cfg.Security.SnapshotTTL)
	resolver := rbac.NewResolver(userRepo)
	tokens := token.NewManager(redisClient, cfg.Security)
	mailProducer := mailqueue.NewProducer(redisClient, cfg.Queue.Stream, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          pool,
		redis:       redisClient,
		snapshots:   snapshots,
		resolver:    resolver,
		tokens:      tokens,
		authService: service.NewAuthService(db, userRepo, verificationRepo, resetRepo, resolver, snapshots, mailProducer, cfg, log),
		profiles:    service.NewProfileService(userRepo, resolver, snapshots, log),
		users:       service.NewUserService(db, userRepo, roleRepo, snapshots, tokens, log),
		roles:       service.NewRoleService(db, roleRepo, permRepo, userRepo, snapshots, log),
		permissions: service.NewPermissionService(db, permRepo, userRepo, snapshots, log),
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	authenticated := middleware.Authenticate(h.cfg.Security.JWTSecret, h.snapshots, h.resolver)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.RegisterUser)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", authenticated, h.Logout)
	}

	profile := v1.Group("/profile", authenticated)
	{
		profile.GET("", h.Profile)
		profile.PUT("", h.UpdateProfile)
		profile.PATCH("/password", h.UpdatePassword)
	}

	settings := v1.Group("/settings", authenticated)
	{
		users := settings.Group("/users")
		users.GET("", middleware.RequirePermissions("user list"), h.ListUsers)
		users.POST("", middleware.RequirePermissions("user create"), h.CreateUser)
		users.GET("/:id", middleware.RequirePermissions("user detail"), h.UserDetail)
		users.PUT("/:id", middleware.RequirePermissions("user edit"), h.UpdateUser)
		users.DELETE("/:id", middleware.RequirePermissions("user delete"), h.DeleteUser)
		users.PATCH("/:id/password", middleware.RequirePermissions("user edit"), h.AdminResetPassword)

		roles := settings.Group("/roles")
		roles.GET("", middleware.RequirePermissions("role list"), h.ListRoles)
		roles.POST("", middleware.RequirePermissions("role create"), h.CreateRole)
		roles.GET("/:id", middleware.RequirePermissions("role detail"), h.RoleDetail)
		roles.PUT("/:id", middleware.RequirePermissions("role edit"), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermissions("role delete"), h.DeleteRole)

		permissions := settings.Group("/permissions", middleware.RequireRoles(models.SuperuserRole))
		permissions.GET("", h.ListPermissions)
		permissions.POST("", h.CreatePermission)
		permissions.GET("/:id", h.PermissionDetail)
		permissions.PUT("/:id", h.UpdatePermission)
		permissions.DELETE("/:id", h.DeletePermission)

		selects := settings.Group("/select")
		selects.GET("/roles", h.SelectRoles)
		selects.GET("/permissions", h.SelectPermissions)
	}
}
