package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/shopwise-auth/internal/api/http/handler"
	"github.com/dtroode/shopwise-auth/internal/api/http/middleware"
	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
)

// AuthService is the login flow plus token validation for protected routes.
type AuthService interface {
	handler.AuthService
	middleware.Authenticator
}

// Config holds the router options.
type Config struct {
	RequestTimeout time.Duration
	SecureCookies  bool
	// AvatarUploads registers the avatar route. It requires object storage.
	AvatarUploads bool
}

// Router wires the HTTP handlers and middleware of the service.
type Router struct {
	registrationService handler.RegistrationService
	authService         AuthService
	accountService      handler.AccountService
	contextManager      model.ContextManager
	cfg                 Config
	logger              *logger.Logger
}

// New creates new Router instance.
func New(
	registrationService handler.RegistrationService,
	authService AuthService,
	accountService handler.AccountService,
	contextManager model.ContextManager,
	cfg Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		registrationService: registrationService,
		authService:         authService,
		accountService:      accountService,
		contextManager:      contextManager,
		cfg:                 cfg,
		logger:              logger,
	}
}

// Register builds the echo instance serving every route.
func (r *Router) Register() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(r.logger)

	logging := middleware.NewLogging(r.logger)
	e.Use(logging.Handle, middleware.Timeout(r.cfg.RequestTimeout))

	e.GET("/healthz", handler.Health)

	api := e.Group("/api/v1")
	r.registerAuthRoutes(api)
	r.registerUserRoutes(api)
	r.registerAdminRoutes(api)

	return e
}

func (r *Router) authenticate() echo.MiddlewareFunc {
	return middleware.NewAuthenticate(r.authService, r.contextManager, r.logger).Handle
}

func (r *Router) registerAuthRoutes(api *echo.Group) {
	cookie := handler.CookieConfig{Secure: r.cfg.SecureCookies}
	registration := handler.NewRegistration(r.registrationService, cookie, r.logger)
	auth := handler.NewAuth(r.authService, r.contextManager, cookie, r.logger)

	g := api.Group("/auth")
	g.POST("/otp/send", registration.SendCode)
	g.POST("/otp/resend", registration.ResendCode)
	g.POST("/otp/verify", registration.VerifyCode)
	g.POST("/register", registration.Register)
	g.POST("/login", auth.Login)
	g.POST("/logout", auth.Logout)
}

func (r *Router) registerUserRoutes(api *echo.Group) {
	auth := handler.NewAuth(r.authService, r.contextManager, handler.CookieConfig{Secure: r.cfg.SecureCookies}, r.logger)
	account := handler.NewAccount(r.accountService, r.contextManager, r.logger)

	g := api.Group("/users", r.authenticate())
	g.GET("/me", auth.Me)
	g.PUT("/me", account.UpdateProfile)

	if r.cfg.AvatarUploads {
		g.PUT("/me/avatar", account.UploadAvatar)
	}
}

func (r *Router) registerAdminRoutes(api *echo.Group) {
	auth := handler.NewAuth(r.authService, r.contextManager, handler.CookieConfig{Secure: r.cfg.SecureCookies}, r.logger)
	account := handler.NewAccount(r.accountService, r.contextManager, r.logger)

	g := api.Group("/admin")
	g.POST("/auth/login", auth.AdminLogin)

	protected := g.Group("", r.authenticate(), middleware.RequireRole(r.contextManager, model.RoleAdmin, model.RoleSuperAdmin))
	protected.POST("/sellers", account.CreateSeller)
	protected.PATCH("/users/:id/status", account.SetStatus)
}
