package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	roleAuth "github.com/MrEthical07/roleAuth"
	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/metrics/export/prometheus"
	"github.com/MrEthical07/roleAuth/middleware"
)

var errBadRequest = errors.New("malformed request")

// Options configures the HTTP surface.
type Options struct {
	// Extraction controls where renewal tokens are read from. The cookie
	// name defaults to the engine's configured renewal cookie.
	Extraction middleware.Options
	// DisableMetrics hides GET /metrics.
	DisableMetrics bool
}

// Handler serves the authentication endpoints for one engine.
type Handler struct {
	engine *roleAuth.Engine
	logger *zap.Logger
	opts   Options
}

func NewHandler(engine *roleAuth.Engine, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Extraction.CookieName == "" {
		opts.Extraction.CookieName = engine.CookieConfig().Name
	}
	return &Handler{engine: engine, logger: logger.Named("http"), opts: opts}
}

// Router builds a gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts the endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/login", h.Login)
	r.POST("/refresh-token", h.RefreshToken)
	r.POST("/verify-session", h.VerifySession)
	r.POST("/renew-session", h.RenewSession)

	authed := r.Group("/")
	authed.Use(middleware.Gin(h.engine, h.opts.Extraction))
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if !h.opts.DisableMetrics {
		r.GET("/metrics", gin.WrapH(prometheus.Handler(h.engine)))
	}
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c)
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		h.badRequest(c)
		return
	}

	res, err := h.engine.Login(c.Request.Context(), roleAuth.LoginRequest{
		Email:  req.Email,
		Secret: req.Secret,
		Role:   role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if res.Role == identity.RoleSupervisor {
		c.JSON(http.StatusOK, gin.H{"token": res.AccessToken})
		return
	}
	setRenewalCookie(c.Writer, h.engine.CookieConfig(), res.RenewalToken, h.engine.RenewalTTL())
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RenewalToken,
	})
}

// RefreshToken exchanges a supervisor bearer token, expired or not, for a new one.
func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := middleware.BearerToken(c.Request)
	if err != nil {
		h.fail(c, err)
		return
	}
	fresh, err := h.engine.RefreshSupervisor(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eToken": fresh})
}

func (h *Handler) VerifySession(c *gin.Context) {
	token, err := middleware.RenewalToken(c.Request, h.opts.Extraction)
	if err != nil {
		h.fail(c, err)
		return
	}
	profile, err := h.engine.VerifyRecruiterSession(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *Handler) RenewSession(c *gin.Context) {
	token, err := middleware.RenewalToken(c.Request, h.opts.Extraction)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.engine.RenewRecruiterSession(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	setRenewalCookie(c.Writer, h.engine.CookieConfig(), res.RenewalToken, h.engine.RenewalTTL())
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RenewalToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	ac, ok := middleware.AuthContext(c)
	if !ok {
		h.fail(c, roleAuth.ErrNoCredential)
		return
	}
	out, err := h.engine.Logout(c.Request.Context(), ac)
	if err != nil {
		h.fail(c, err)
		return
	}
	if out.ClearRenewalCookie {
		clearRenewalCookie(c.Writer, h.engine.CookieConfig())
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the authorization context of the caller.
func (h *Handler) Me(c *gin.Context) {
	ac, ok := middleware.AuthContext(c)
	if !ok {
		h.fail(c, roleAuth.ErrNoCredential)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identityId":     ac.IdentityID,
		"email":          ac.Email,
		"role":           ac.Role,
		"organizationId": ac.OrganizationID,
		"user":           ac.Identity,
	})
}

func (h *Handler) badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorBody{
		Code:    roleAuth.CodeBadRequest,
		Message: errBadRequest.Error(),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := roleAuth.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, middleware.NewErrorBody(err))
}
