package handlers

import (
	"context"
	"net/http"

	"dialogue-service/internal/eligibility"
	"dialogue-service/internal/realtime"
	"dialogue-service/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.SessionService
	Hub     *realtime.Hub
}

func NewSessionHandler(s *service.SessionService, hub *realtime.Hub) *SessionHandler {
	return &SessionHandler{Service: s, Hub: hub}
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Service.GetSession(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		SimulationID string `json:"simulation_id" binding:"required"`
		DialogueID   string `json:"dialogue_id" binding:"required"`
		AudioEnabled bool   `json:"audio_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	session, err := h.Service.CreateSession(context.Background(), req.SimulationID, req.DialogueID, req.AudioEnabled)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session":   session,
		"next_step": "Call /start to begin the dialogue",
	})
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	session, err := h.Service.Start(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetTurn projects the current node and the eligible responses for the
// requesting participant. Registration and role come from the auth layer's
// headers; guests get the default-option fallback behavior.
func (h *SessionHandler) GetTurn(c *gin.Context) {
	participant := eligibility.Participant{
		UserID:     c.GetHeader("X-User-ID"),
		Registered: c.GetHeader("X-User-ID") != "",
		RoleID:     c.GetHeader("X-Role-ID"),
	}
	turn, err := h.Service.Turn(context.Background(), c.Param("id"), participant)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

func (h *SessionHandler) Advance(c *gin.Context) {
	var req struct {
		ResponseID          string  `json:"response_id" binding:"required"`
		RoleID              string  `json:"role_id"`
		ResponseTimeSeconds float64 `json:"response_time_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	userID := c.GetHeader("X-User-ID")
	decision, err := h.Service.Advance(context.Background(), c.Param("id"), service.AdvanceInput{
		ResponseID:          req.ResponseID,
		UserID:              userID,
		RoleID:              req.RoleID,
		Registered:          userID != "",
		ResponseTimeSeconds: req.ResponseTimeSeconds,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *SessionHandler) PauseSession(c *gin.Context) {
	if err := h.Service.Pause(context.Background(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (h *SessionHandler) ResumeSession(c *gin.Context) {
	if err := h.Service.Resume(context.Background(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

func (h *SessionHandler) FinalizeSession(c *gin.Context) {
	if err := h.Service.Finalize(context.Background(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "finished"})
}

func (h *SessionHandler) GetHistory(c *gin.Context) {
	history, err := h.Service.History(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *SessionHandler) GetDecisions(c *gin.Context) {
	decisions, err := h.Service.Decisions(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decisions)
}

// AutoFill runs one coordinator pass; the external scheduler calls this when
// it detects a missing participant or a response timeout.
func (h *SessionHandler) AutoFill(c *gin.Context) {
	report, err := h.Service.AutoFill(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Watch upgrades to websocket and streams turn projections for a session.
func (h *SessionHandler) Watch(c *gin.Context) {
	if err := h.Hub.Subscribe(c.Writer, c.Request, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
