package handlers

import (
	"errors"
	"net/http"

	"dialogue-service/internal/engine"
	"dialogue-service/internal/recorder"
	"dialogue-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// fail translates core errors into HTTP responses. The core only classifies;
// the mapping to status codes and messages lives here.
func fail(c *gin.Context, err error) {
	var invalid *service.ErrDialogueInvalid
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, engine.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SESSION_CLOSED"})
	case errors.Is(err, engine.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_STATE_TRANSITION"})
	case errors.Is(err, engine.ErrIllegalMove):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "ILLEGAL_MOVE"})
	case errors.Is(err, engine.ErrUnsupportedConsequence):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "UNSUPPORTED_CONSEQUENCE"})
	case errors.Is(err, recorder.ErrInvalidGrade):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_GRADE"})
	case errors.Is(err, service.ErrDialogueNotEditable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "DIALOGUE_NOT_EDITABLE"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "dialogue structure invalid",
			"code":     "GRAPH_INTEGRITY",
			"findings": invalid.Findings,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
