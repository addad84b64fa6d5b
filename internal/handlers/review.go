package handlers

import (
	"net/http"

	"listing-catalog/internal/review"

	"github.com/gin-gonic/gin"
)

// ReviewHandler handles the duplicate review endpoints
type ReviewHandler struct {
	workflow *review.Workflow
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(workflow *review.Workflow) *ReviewHandler {
	return &ReviewHandler{workflow: workflow}
}

// Recheck re-runs duplicate matching for one listing
func (h *ReviewHandler) Recheck(c *gin.Context) {
	l, err := h.workflow.RecheckOne(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// RecheckAll re-runs duplicate matching over the whole active catalog
func (h *ReviewHandler) RecheckAll(c *gin.Context) {
	result, err := h.workflow.BulkRecheck()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Pending returns listings awaiting a reviewer decision, newest first
func (h *ReviewHandler) Pending(c *gin.Context) {
	listings, err := h.workflow.ListPendingReview()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// Approve merges the duplicate into its canonical and removes the duplicate
func (h *ReviewHandler) Approve(c *gin.Context) {
	duplicateID := c.Param("id")
	canonicalID := c.Query("canonical_id")
	if canonicalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "canonical_id is required"})
		return
	}

	canonical, err := h.workflow.Approve(duplicateID, canonicalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, canonical)
}

// Reject discards the duplicate without touching the canonical
func (h *ReviewHandler) Reject(c *gin.Context) {
	if err := h.workflow.Reject(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Compare returns a duplicate and its canonical for side-by-side display
func (h *ReviewHandler) Compare(c *gin.Context) {
	pair, err := h.workflow.Compare(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Purge permanently removes a soft-deleted listing
func (h *ReviewHandler) Purge(c *gin.Context) {
	if err := h.workflow.Purge(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}
