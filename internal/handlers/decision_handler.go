package handlers

import (
	"context"
	"net/http"

	"dialogue-service/internal/service"

	"github.com/gin-gonic/gin"
)

type DecisionHandler struct {
	Service *service.DecisionService
}

func NewDecisionHandler(s *service.DecisionService) *DecisionHandler {
	return &DecisionHandler{Service: s}
}

func (h *DecisionHandler) GetDecision(c *gin.Context) {
	decision, err := h.Service.GetDecision(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// AttachAudio stores the audio reference returned by the audio subsystem.
// Content never passes through this service.
func (h *DecisionHandler) AttachAudio(c *gin.Context) {
	var req struct {
		AudioRef        string  `json:"audio_ref" binding:"required"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	decision, err := h.Service.AttachAudio(context.Background(), c.Param("id"), req.AudioRef, req.DurationSeconds)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *DecisionHandler) MarkAudioProcessed(c *gin.Context) {
	decision, err := h.Service.MarkAudioProcessed(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// Justify stores the participant's written justification for a choice, for
// the instructor to weigh during review.
func (h *DecisionHandler) Justify(c *gin.Context) {
	var req struct {
		Justification string `json:"justification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	decision, err := h.Service.Justify(context.Background(), c.Param("id"), req.Justification)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// Evaluate records the instructor review. Grade must be 0-100;
// re-evaluation overwrites a previous review.
func (h *DecisionHandler) Evaluate(c *gin.Context) {
	var req struct {
		Grade           int    `json:"grade"`
		InstructorNotes string `json:"instructor_notes"`
		Feedback        string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	evaluator := c.GetHeader("X-User-ID")
	if evaluator == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Evaluator identity required"})
		return
	}
	decision, err := h.Service.Evaluate(context.Background(), c.Param("id"), req.Grade, req.InstructorNotes, req.Feedback, evaluator)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *DecisionHandler) PendingEvaluation(c *gin.Context) {
	decisions, err := h.Service.PendingEvaluation(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decisions)
}
