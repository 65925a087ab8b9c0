package handlers

import (
	"context"
	"net/http"

	"dialogue-service/internal/models"
	"dialogue-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

type DialogueHandler struct {
	Service *service.DialogueService
}

func NewDialogueHandler(s *service.DialogueService) *DialogueHandler {
	return &DialogueHandler{Service: s}
}

// ListDialogues returns dialogues visible to the caller: public ones plus
// the caller's own.
func (h *DialogueHandler) ListDialogues(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	dialogues, err := h.Service.ListDialogues(context.Background(), userID, userID != "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dialogues)
}

func (h *DialogueHandler) GetDialogue(c *gin.Context) {
	dialogue, err := h.Service.GetDialogue(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dialogue)
}

func (h *DialogueHandler) CreateDialogue(c *gin.Context) {
	var dialogue models.Dialogue
	if err := c.ShouldBindJSON(&dialogue); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	dialogue.OwnerID = c.GetHeader("X-User-ID")
	if err := h.Service.CreateDialogue(context.Background(), &dialogue); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dialogue)
}

func (h *DialogueHandler) UpdateDialogue(c *gin.Context) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Public      *bool   `json:"public"`
		Version     *string `json:"version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Public != nil {
		update["public"] = *req.Public
	}
	if req.Version != nil {
		update["version"] = *req.Version
	}
	if err := h.Service.UpdateDialogue(context.Background(), c.Param("id"), update); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dialogue updated"})
}

func (h *DialogueHandler) ArchiveDialogue(c *gin.Context) {
	if err := h.Service.ArchiveDialogue(context.Background(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dialogue archived"})
}

// ValidateDialogue reports structure findings and advisory statistics
// without blocking anything.
func (h *DialogueHandler) ValidateDialogue(c *gin.Context) {
	findings, stats, err := h.Service.Validate(context.Background(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    len(findings) == 0,
		"findings": findings,
		"stats":    stats,
	})
}

func (h *DialogueHandler) ActivateDialogue(c *gin.Context) {
	if err := h.Service.Activate(context.Background(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dialogue activated"})
}

func (h *DialogueHandler) DuplicateDialogue(c *gin.Context) {
	dialogue, err := h.Service.Duplicate(context.Background(), c.Param("id"), c.GetHeader("X-User-ID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dialogue)
}

func (h *DialogueHandler) CreateNode(c *gin.Context) {
	var node models.Node
	if err := c.ShouldBindJSON(&node); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	node.DialogueID = c.Param("id")
	if err := h.Service.AddNode(context.Background(), &node); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (h *DialogueHandler) UpdateNode(c *gin.Context) {
	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.UpdateNode(context.Background(), c.Param("nodeId"), bson.M(update)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Node updated"})
}

func (h *DialogueHandler) DeleteNode(c *gin.Context) {
	if err := h.Service.DeleteNode(context.Background(), c.Param("nodeId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Node and attached responses deleted"})
}

func (h *DialogueHandler) CreateResponse(c *gin.Context) {
	var response models.Response
	if err := c.ShouldBindJSON(&response); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	response.DialogueID = c.Param("id")
	if err := h.Service.AddResponse(context.Background(), &response); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func (h *DialogueHandler) UpdateResponse(c *gin.Context) {
	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.UpdateResponse(context.Background(), c.Param("responseId"), bson.M(update)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Response updated"})
}

func (h *DialogueHandler) DeleteResponse(c *gin.Context) {
	if err := h.Service.DeleteResponse(context.Background(), c.Param("responseId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Response deleted"})
}
