package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/services"
)

// ProfileHandler handles saved engine configurations
type ProfileHandler struct {
	profiles services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List returns all profiles
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List()
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// Get returns one profile
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}

// Create saves a new profile
func (h *ProfileHandler) Create(c *gin.Context) {
	var form services.ProfileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid profile format", err)
		return
	}

	profile, err := h.profiles.Create(form)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message": "Profile created successfully",
		"profile": profile,
	})
}

// Update replaces a profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var form services.ProfileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid profile format", err)
		return
	}

	profile, err := h.profiles.Update(c.Param("id"), form)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

// Delete removes a profile
func (h *ProfileHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.profiles.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Profile deleted successfully",
		"id":      id,
	})
}
