package interviews

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/ai"
	"intervie-backend/internal/extract"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/shared/server/middleware"
	"intervie-backend/internal/shared/server/respond"
)

const (
	maxResumeSize = 10 << 20 // 10MB
	maxAudioSize  = 25 << 20 // 25MB
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches interview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.start)
	rg.POST("/interviews/preview", h.preview)
	rg.GET("/interviews", h.list)
	rg.GET("/interviews/:id/next", h.nextQuestion)
	rg.GET("/interviews/:id/questions", h.questions)
	rg.GET("/interviews/:id/summary", h.summary)
	rg.POST("/interviews/:id/answers", h.submitAnswer)
	rg.POST("/interviews/:id/answers/audio", h.submitAudio)
	rg.POST("/interviews/:id/answers/timeout", h.timeoutAnswer)
	rg.POST("/interviews/:id/grade", h.grade)
}

func (h *Handler) start(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeSize)

	data, header, ok := readUpload(c, "file")
	if !ok {
		return
	}

	result, err := h.Svc.StartFromResume(c.Request.Context(), userID, data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.Created(c, "Interview started", result)
}

func (h *Handler) preview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeSize)

	data, header, ok := readUpload(c, "file")
	if !ok {
		return
	}

	questions, err := h.Svc.PreviewQuestions(c.Request.Context(), userID, data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Questions generated successfully", questions)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := h.Svc.ListSessions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}
	respond.OK(c, "Interview sessions", sessions)
}

func (h *Handler) nextQuestion(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	next, err := h.Svc.NextQuestion(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if next == nil {
		respond.OK(c, "Interview completed", nil)
		return
	}
	respond.OK(c, "Next question", next)
}

func (h *Handler) questions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.QuestionsWithStatus(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Questions with status", items)
}

func (h *Handler) summary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	summary, err := h.Svc.GetSummary(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Interview summary", summary)
}

type submitAnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	AnswerText string `json:"answerText" binding:"required"`
}

func (h *Handler) submitAnswer(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "questionId and answerText are required", nil)
		return
	}

	answer, err := h.Svc.SubmitAnswer(c.Request.Context(), c.Param("id"), userID, req.QuestionID, req.AnswerText)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Answer submitted", gin.H{"answerId": answer.ID})
}

func (h *Handler) submitAudio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioSize)

	questionID := c.PostForm("questionId")
	if questionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "questionId is required", nil)
		return
	}
	data, header, ok := readUpload(c, "audio")
	if !ok {
		return
	}

	answer, err := h.Svc.TranscribeAndStore(c.Request.Context(), c.Param("id"), userID, questionID, data, header.Header.Get("Content-Type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Answer submitted", gin.H{"answerId": answer.ID, "answerText": answer.AnswerText})
}

type timeoutRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
}

func (h *Handler) timeoutAnswer(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req timeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "questionId is required", nil)
		return
	}

	if err := h.Svc.TimeoutAnswer(c.Request.Context(), c.Param("id"), userID, req.QuestionID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, "Answer marked as timed out", nil)
}

func (h *Handler) grade(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	results, err := h.Svc.Grade(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if results == nil {
		results = []GradeResult{}
	}
	respond.OK(c, "Interview graded", gin.H{"results": results})
}

func readUpload(c *gin.Context, field string) ([]byte, *multipart.FileHeader, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", field+" is required", nil)
		return nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read "+field, nil)
		return nil, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read "+field, nil)
		return nil, nil, false
	}
	return data, header, true
}

func respondServiceError(c *gin.Context, err error) {
	var (
		quotaErr *plans.QuotaError
		rateErr  *ai.RateLimitError
	)
	switch {
	case errors.As(err, &quotaErr):
		respond.Error(c, http.StatusForbidden, "quota_exceeded", quotaErr.Error(), gin.H{
			"plan":  quotaErr.Plan,
			"limit": quotaErr.Limit,
		})
	case errors.As(err, &rateErr):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", rateErr.Error(), nil)
	case errors.Is(err, plans.ErrPlanNotConfigured):
		respond.Error(c, http.StatusInternalServerError, "configuration_error", "Plan limits not configured. Please contact support.", nil)
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrQuestionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrAlreadyCompleted):
		respond.Error(c, http.StatusConflict, "already_completed", err.Error(), nil)
	case errors.Is(err, ErrEmptyAnswer), errors.Is(err, extract.ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrGenerationFailed):
		respond.Error(c, http.StatusBadGateway, "generation_failed", "Failed to generate questions", nil)
	case errors.Is(err, ErrTranscriptionFailed):
		respond.Error(c, http.StatusBadGateway, "transcription_failed", "Failed to transcribe audio", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
