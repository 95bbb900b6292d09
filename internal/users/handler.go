package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the routes that do not need a bearer token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/register_user/:id", h.register)
	rg.POST("/login", h.login)
}

// RegisterRoutes attaches the authenticated routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/get_users", h.listUsers)
	rg.GET("/me", h.me)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	user, err := h.Svc.Register(c.Request.Context(), RegisterInput{
		ID:       c.Param("id"),
		Name:     req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, registerResponse{
		Message:          "User registered successfully!",
		UUID:             user.ID,
		UserName:         user.Name,
		Email:            user.Email,
		RegistrationDate: user.RegisteredAt,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respond.Err(c, err)
		return
	}

	respond.OK(c, loginResponse{
		Message:     "Login successful",
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	ids, err := h.Svc.ListUsers(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, listUsersResponse{UUIDs: ids, TotalUsers: len(ids)})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, meResponse{
		UUID:             user.ID,
		UserName:         user.Name,
		Email:            user.Email,
		Role:             string(user.Role),
		RegistrationDate: user.RegisteredAt,
	})
}
