package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/filter"
	"github.com/ajharbinger/msa-market-engine/internal/services"
)

// AnalyticsHandler exposes the scoring, filter, market and acquisition engines
type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler with service injection
func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Score recalculates scores and categories
func (h *AnalyticsHandler) Score(c *gin.Context) {
	var req services.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid score request", err)
		return
	}

	result, err := h.analytics.Score(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"mode":           result.Mode,
		"records":        result.Records,
		"weights":        result.Weights,
		"weights_total":  result.WeightsTotal,
		"bucket_weights": result.BucketWeights,
		"excluded":       result.Excluded,
		"categories":     result.Categories,
		"breakdown":      result.Breakdown,
	})
}

// Filter applies the global filters
func (h *AnalyticsHandler) Filter(c *gin.Context) {
	var req services.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid filter request", err)
		return
	}

	result, err := h.analytics.Filter(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"records":       result.Records,
		"total":         result.Total,
		"visible":       result.Visible,
		"ranges":        result.Ranges,
		"region_counts": result.RegionCounts,
	})
}

// Analyze filters, scores and rolls up providers
func (h *AnalyticsHandler) Analyze(c *gin.Context) {
	var req services.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid analyze request", err)
		return
	}

	result, err := h.analytics.Analyze(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"filter":    result.Filter,
		"score":     result.Score,
		"providers": result.Providers,
	})
}

// Providers aggregates opportunity records per provider
func (h *AnalyticsHandler) Providers(c *gin.Context) {
	var req services.ProvidersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid providers request", err)
		return
	}

	result, err := h.analytics.Providers(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"providers": result.Providers,
		"summary":   result.Summary,
	})
}

// AcquisitionImpact simulates an acquisition
func (h *AnalyticsHandler) AcquisitionImpact(c *gin.Context) {
	var req services.AcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid acquisition request", err)
		return
	}

	impact, err := h.analytics.AcquisitionImpact(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"scenario": impact.Scenario,
		"rows":     impact.Rows,
		"summary":  impact.Summary,
	})
}

// DefaultWeights returns the configured default weights
func (h *AnalyticsHandler) DefaultWeights(c *gin.Context) {
	weights := h.analytics.DefaultWeights()
	respond(c, http.StatusOK, gin.H{
		"weights": weights,
		"total":   weights.Total(),
	})
}

// WeightsFromBuckets converts a bucket layout into flat weights
func (h *AnalyticsHandler) WeightsFromBuckets(c *gin.Context) {
	var req services.BucketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid bucket layout", err)
		return
	}

	result, err := h.analytics.WeightsFromBuckets(req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"weights": result.Weights,
		"total":   result.Total,
	})
}

// AssignBucket moves a pair into a bucket
func (h *AnalyticsHandler) AssignBucket(c *gin.Context) {
	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid bucket assignment", err)
		return
	}

	assignments, err := h.analytics.AssignBucket(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"bucket_assignments": assignments})
}

// RemoveFromBucket takes a pair out of its bucket
func (h *AnalyticsHandler) RemoveFromBucket(c *gin.Context) {
	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid bucket assignment", err)
		return
	}

	assignments, err := h.analytics.RemoveFromBucket(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"bucket_assignments": assignments})
}

func optionalFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.InvalidInput("invalid "+name, err).WithDetails(raw)
	}
	return &v, nil
}

// ResolveRegion maps ?msa=&lat=&lon= to a region
func (h *AnalyticsHandler) ResolveRegion(c *gin.Context) {
	msa := strings.TrimSpace(c.Query("msa"))
	lat, err := optionalFloat(c, "lat")
	if err != nil {
		respondError(c, err)
		return
	}
	lon, err := optionalFloat(c, "lon")
	if err != nil {
		respondError(c, err)
		return
	}
	if msa == "" && (lat == nil || lon == nil) {
		respondError(c, errors.InvalidInput("msa or lat and lon are required", nil))
		return
	}

	result := h.analytics.ResolveRegion(msa, lat, lon)
	respond(c, http.StatusOK, gin.H{
		"msa":         result.MSA,
		"region":      result.Region,
		"state_codes": result.StateCodes,
		"regions":     filter.Regions(),
	})
}
