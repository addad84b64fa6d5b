package handlers

import (
	"fmt"
	"net/http"
	"time"

	"listing-catalog/internal/dedupe"
	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListingHandler handles listing intake and lifecycle requests
type ListingHandler struct {
	repo      repository.PropertyRepository
	lifecycle *lifecycle.Service
	matcher   *dedupe.Matcher
}

// NewListingHandler creates a new listing handler
func NewListingHandler(repo repository.PropertyRepository, svc *lifecycle.Service, matcher *dedupe.Matcher) *ListingHandler {
	return &ListingHandler{
		repo:      repo,
		lifecycle: svc,
		matcher:   matcher,
	}
}

// listingRequest is the intake payload. Email metadata arrives already
// extracted; this service never parses raw messages.
type listingRequest struct {
	OwnerID         string     `json:"owner_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Price           *float64   `json:"price"`
	Address         string     `json:"address"`
	PropertyType    string     `json:"property_type"`
	SquareFootage   *int       `json:"square_footage"`
	Bedrooms        *int       `json:"bedrooms"`
	Bathrooms       *float64   `json:"bathrooms"`
	ImageURLs       []string   `json:"image_urls"`
	SourceURL       string     `json:"source_url"`
	EmailSubject    string     `json:"email_subject"`
	EmailReceivedAt *time.Time `json:"email_received_at"`
	Status          string     `json:"status"`
}

func (req *listingRequest) applyContent(l *models.Listing) {
	l.Title = req.Title
	l.Description = req.Description
	l.Price = req.Price
	l.Address = req.Address
	l.PropertyType = req.PropertyType
	l.SquareFootage = req.SquareFootage
	l.Bedrooms = req.Bedrooms
	l.Bathrooms = req.Bathrooms
	l.ImageURLs = req.ImageURLs
	l.SourceURL = req.SourceURL
	l.EmailSubject = req.EmailSubject
	l.EmailReceivedAt = req.EmailReceivedAt
}

// Create saves a new listing and immediately runs duplicate matching on it
func (h *ListingHandler) Create(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
		return
	}
	if req.OwnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "owner_id is required"})
		return
	}

	status := models.ListingStatusActive
	if req.Status != "" {
		parsed, err := parseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
			return
		}
		status = parsed
	}

	l := &models.Listing{
		ID:      uuid.NewString(),
		OwnerID: req.OwnerID,
		Status:  status,
	}
	req.applyContent(l)

	if err := h.repo.Save(l); err != nil {
		respondError(c, err)
		return
	}

	// New listing enters the catalog through the matcher.
	updated, err := h.lifecycle.Recheck(l.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, updated)
}

// Update replaces a listing's content fields and re-runs matching, since an
// address edit can move it into or out of a cluster
func (h *ListingHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
		return
	}

	l, err := h.repo.FindByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	req.applyContent(l)
	if req.Status != "" {
		status, err := parseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
			return
		}
		l.Status = status
	}

	if err := h.repo.Save(l); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.lifecycle.Recheck(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Get returns a single listing by id
func (h *ListingHandler) Get(c *gin.Context) {
	l, err := h.repo.FindByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// List returns the active catalog view (non-archived, non-deleted,
// non-pending listings)
func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.repo.FindAllActive()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// Archive flags a listing as archived
func (h *ListingHandler) Archive(c *gin.Context) {
	l, err := h.lifecycle.Archive(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Unarchive clears the archived flag
func (h *ListingHandler) Unarchive(c *gin.Context) {
	l, err := h.lifecycle.Unarchive(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// SoftDelete flags a listing as deleted
func (h *ListingHandler) SoftDelete(c *gin.Context) {
	l, err := h.lifecycle.SoftDelete(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Restore clears the deleted flag and re-runs matching
func (h *ListingHandler) Restore(c *gin.Context) {
	l, err := h.lifecycle.Restore(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Similar surfaces fuzzy address candidates for a listing. Read-only: unlike
// exact matching this never triggers a lifecycle transition.
func (h *ListingHandler) Similar(c *gin.Context) {
	l, err := h.repo.FindByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	matches, err := h.matcher.FindSimilar(l)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing_id": l.ID,
		"candidates": matches,
		"count":      len(matches),
	})
}

func parseStatus(raw string) (models.ListingStatus, error) {
	switch models.ListingStatus(raw) {
	case models.ListingStatusActive, models.ListingStatusSold:
		return models.ListingStatus(raw), nil
	case models.ListingStatusPending:
		return "", fmt.Errorf("%w: pending status is assigned by duplicate matching", lifecycle.ErrInvalidInput)
	default:
		return "", fmt.Errorf("%w: unknown status %q", lifecycle.ErrInvalidInput, raw)
	}
}
