package mockauth

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront-client/internal/auth"
	"storefront-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers exposes Service over the auth service's HTTP contract.
// Errors answer {"message": ...} the way the Spring services do.
type Handlers struct {
	Service *Service
	Tokens  *auth.Manager
}

type registerRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type credentialsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
	PhoneNumber  string `json:"phoneNumber"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

// Register mounts the auth routes on r.
func (h Handlers) Register(r gin.IRouter) {
	g := r.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh-token", h.refreshToken)
	g.POST("/logout", h.logout)
	g.GET("/me", auth.RequireAccessToken(h.Tokens), h.me)
}

// Router builds a standalone engine serving the auth routes.
func (h Handlers) Router(log *slog.Logger) *gin.Engine {
	if log == nil {
		log = logger.Discard()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	h.Register(r)
	return r
}

func (h Handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	u, err := h.Service.Register(req.PhoneNumber, req.Password, req.FirstName, req.LastName, req.Email)
	switch {
	case errors.Is(err, ErrUserExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Phone number already registered"})
		return
	case errors.Is(err, ErrInvalidUser):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Phone number and password are required"})
		return
	case err != nil:
		logger.FromGin(c).Error("register failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "phoneNumber": u.PhoneNumber})
}

func (h Handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	u, pair, err := h.Service.Login(req.PhoneNumber, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid phone number or password"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(u, pair, "Login successful"))
}

func (h Handlers) refreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "refreshToken required"})
		return
	}
	u, pair, err := h.Service.Refresh(req.RefreshToken)
	if errors.Is(err, ErrInvalidRefresh) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Token refresh failed"})
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(u, pair, "Token refreshed successfully"))
}

func (h Handlers) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	h.Service.Logout(req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h Handlers) me(c *gin.Context) {
	phone := c.GetString("phoneNumber")
	u, ok := h.Service.User(phone)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	role, _ := auth.RoleFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"userId":      u.ID,
		"phoneNumber": u.PhoneNumber,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"email":       u.Email,
		"role":        role,
	})
}

func newAuthResponse(u *User, pair auth.TokenPair, msg string) authResponse {
	return authResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Message:      msg,
		PhoneNumber:  u.PhoneNumber,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
	}
}
