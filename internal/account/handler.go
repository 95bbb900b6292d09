package account

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/delete_account", h.deleteAccount)
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

type deleteAccountResponse struct {
	Message          string `json:"message"`
	UUID             string `json:"uuid"`
	DeletedDocuments int64  `json:"deleted_documents"`
}

func (h *Handler) deleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	res, err := h.Svc.DeleteAccount(c.Request.Context(), middleware.UserIDFromContext(c), req.Password)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, deleteAccountResponse{
		Message:          "Your account has been deleted!",
		UUID:             res.UserID,
		DeletedDocuments: res.DeletedDocuments,
	})
}
