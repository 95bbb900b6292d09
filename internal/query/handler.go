package query

import (
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
	rg.GET("/query", h.query)
}

type queryResponse struct {
	UUID        string `json:"uuid"`
	User        string `json:"user"`
	Query       string `json:"query"`
	LLMResponse string `json:"LLM_response"`
}

func (h *Handler) query(c *gin.Context) {
	answer, err := h.Svc.Ask(c.Request.Context(), middleware.UserIDFromContext(c), c.Query("query"))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, queryResponse{
		UUID:        answer.UserID,
		User:        answer.UserName,
		Query:       answer.Query,
		LLMResponse: answer.Response,
	})
}
