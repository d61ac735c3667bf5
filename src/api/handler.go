package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"study-assistant/src/application"
	"study-assistant/src/domain"
)

const defaultHistoryLimit = 50

// Recorder принимает записи о заданных вопросах
type Recorder interface {
	Record(question string, meta map[string]any, resp domain.ResponseResult)
}

// Handler HTTP обработчики ассистента
type Handler struct {
	assistant application.AssistantService
	recorder  Recorder
	history   domain.InteractionRepository
	logger    *slog.Logger
}

// NewHandler создает обработчики. recorder и history могут быть nil.
func NewHandler(assistant application.AssistantService, recorder Recorder, history domain.InteractionRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}
	return &Handler{
		assistant: assistant,
		recorder:  recorder,
		history:   history,
		logger:    logger,
	}
}

type askRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context"`
}

type feedbackRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Helpful  bool   `json:"helpful"`
}

// Register регистрирует маршруты на роутере
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ai := router.Group("/api/ai")
	{
		ai.POST("/ask", h.Ask)
		ai.POST("/feedback", h.Feedback)
		ai.GET("/stats", h.Stats)
		ai.GET("/interactions", h.Interactions)
	}
}

// NewRouter создает gin роутер со всеми маршрутами
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h.Register(router)
	return router
}

// Ask POST /api/ai/ask
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "некорректное тело запроса"})
		return
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}

	resp := h.assistant.Ask(req.Question, req.Context)
	if h.recorder != nil {
		h.recorder.Record(req.Question, req.Context, resp)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "response": resp})
}

// Feedback POST /api/ai/feedback
func (h *Handler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "некорректное тело запроса"})
		return
	}

	err := h.assistant.Feedback(c.Request.Context(), req.Question, req.Answer, req.Helpful)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, domain.ErrEmptyQuestion), errors.Is(err, domain.ErrEmptyAnswer):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		h.logger.Error("ошибка обработки отзыва", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "не удалось сохранить отзыв"})
	}
}

// Stats GET /api/ai/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": h.assistant.Stats()})
}

// Interactions GET /api/ai/interactions?classId=...&limit=...
func (h *Handler) Interactions(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "журнал взаимодействий отключен"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "некорректный limit"})
			return
		}
		limit = n
	}

	interactions, err := h.history.ListInteractions(c.Request.Context(), c.Query("classId"), limit)
	if err != nil {
		h.logger.Error("ошибка чтения журнала", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "не удалось прочитать журнал"})
		return
	}
	if interactions == nil {
		interactions = []domain.Interaction{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "interactions": interactions})
}
