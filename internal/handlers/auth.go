package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/errors"
	"github.com/charlesng35/gitteams/pkg/metrics"
	"github.com/charlesng35/gitteams/pkg/response"
)

// AuthHandler manages owner login and identity.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		response.Error(c, errors.NewBadRequest("name is required"))
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Name, req.Password, c.ClientIP())
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		respondError(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Name: user.Name})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		respondError(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.jwt.TTL().Seconds()),
		"user":       userPayload{ID: user.ID, Name: user.Name},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userPayload{ID: user.ID, Name: user.Name})
}
