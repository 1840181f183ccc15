package services

import (
	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/market"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/scoring"
)

// ScoringConfig selects the scoring mode and its settings. An empty mode
// means weights when weights are given and buckets otherwise.
type ScoringConfig struct {
	Mode              models.ScoringMode        `json:"mode,omitempty"`
	Weights           models.Weights            `json:"weights,omitempty"`
	BucketAssignments []models.BucketAssignment `json:"bucket_assignments,omitempty"`
	BucketWeights     *models.BucketWeights     `json:"bucket_weights,omitempty"`
}

// ScoreRequest represents a scoring request. UseStoredData replaces Records
// with the uploaded attractiveness dataset.
type ScoreRequest struct {
	ScoringConfig
	Records          []models.AttractivenessRecord `json:"records"`
	UseStoredData    bool                          `json:"use_stored_data"`
	IncludeBreakdown bool                          `json:"include_breakdown"`
}

// ScoreResult holds a full recalculation
type ScoreResult struct {
	Mode          models.ScoringMode                  `json:"mode"`
	Records       []models.AttractivenessRecord       `json:"records"`
	Weights       models.Weights                      `json:"weights"`
	WeightsTotal  int                                 `json:"weights_total"`
	BucketWeights *models.BucketWeights               `json:"bucket_weights,omitempty"`
	Excluded      int                                 `json:"excluded"`
	Categories    map[models.Category]int             `json:"categories"`
	Breakdown     map[string][]scoring.ParameterScore `json:"breakdown,omitempty"`
}

// FilterRequest represents a global filter request. Nil Ranges are derived
// from the records.
type FilterRequest struct {
	Records           []models.AttractivenessRecord `json:"records"`
	Filters           models.GlobalFilters          `json:"filters"`
	BucketAssignments []models.BucketAssignment     `json:"bucket_assignments,omitempty"`
	Ranges            *models.FilterBucketRanges    `json:"ranges,omitempty"`
	UseStoredData     bool                          `json:"use_stored_data"`
}

// FilterResult holds the visible records
type FilterResult struct {
	Records      []models.AttractivenessRecord `json:"records"`
	Total        int                           `json:"total"`
	Visible      int                           `json:"visible"`
	Ranges       models.FilterBucketRanges     `json:"ranges"`
	RegionCounts map[string]int                `json:"region_counts"`
}

// AnalyzeRequest filters, scores and rolls up providers in one pass
type AnalyzeRequest struct {
	ScoringConfig
	Records       []models.AttractivenessRecord `json:"records"`
	Opportunities []models.OpportunityRecord    `json:"opportunities"`
	Filters       models.GlobalFilters          `json:"filters"`
	Ranges        *models.FilterBucketRanges    `json:"ranges,omitempty"`
	RankedOnly    bool                          `json:"ranked_only"`
	UseStoredData bool                          `json:"use_stored_data"`
}

// AnalyzeResult combines the filter, score and provider outputs
type AnalyzeResult struct {
	Filter    FilterResult  `json:"filter"`
	Score     ScoreResult   `json:"score"`
	Providers market.Result `json:"providers"`
}

// ProvidersRequest represents a market aggregation request. A non-empty
// VisibleMSAs restricts the records first.
type ProvidersRequest struct {
	Opportunities []models.OpportunityRecord `json:"opportunities"`
	RankedOnly    bool                       `json:"ranked_only"`
	VisibleMSAs   []string                   `json:"visible_msas,omitempty"`
	UseStoredData bool                       `json:"use_stored_data"`
}

// AcquisitionRequest represents an acquisition scenario. Acquirer and
// target records may be sent separately or mixed into Opportunities; empty
// names are taken from the first acquirer or target record.
type AcquisitionRequest struct {
	Acquirer        string                     `json:"acquirer"`
	Target          string                     `json:"target"`
	Opportunities   []models.OpportunityRecord `json:"opportunities,omitempty"`
	AcquirerRecords []models.OpportunityRecord `json:"acquirer_records,omitempty"`
	TargetRecords   []models.OpportunityRecord `json:"target_records,omitempty"`
	Deposits        []models.DepositRecord     `json:"deposit_records,omitempty"`
	HaircutPct      *float64                   `json:"haircut_pct,omitempty"`
	VisibleMSAs     []string                   `json:"visible_msas,omitempty"`
	UseStoredData   bool                       `json:"use_stored_data"`
}

// BucketsRequest carries a bucket layout
type BucketsRequest struct {
	BucketAssignments []models.BucketAssignment `json:"bucket_assignments"`
	BucketWeights     *models.BucketWeights     `json:"bucket_weights,omitempty"`
}

// WeightsResult is a flat weight map derived from buckets
type WeightsResult struct {
	Weights models.Weights `json:"weights"`
	Total   int            `json:"total"`
}

// AssignRequest moves or removes one (parameter, target value) pair
type AssignRequest struct {
	BucketAssignments []models.BucketAssignment `json:"bucket_assignments"`
	ParameterID       string                    `json:"parameter_id"`
	TargetValue       string                    `json:"selected_target_value"`
	Bucket            string                    `json:"bucket,omitempty"`
	Position          int                       `json:"position"`
}

// RegionResult is a resolved region
type RegionResult struct {
	MSA        string   `json:"msa"`
	Region     string   `json:"region"`
	StateCodes []string `json:"state_codes"`
}

// UploadResult reports a completed upload
type UploadResult struct {
	Batch  models.UploadBatch `json:"batch"`
	Report ingest.Report      `json:"report"`
}

// DatasetSummary describes the stored dataset of a kind
type DatasetSummary struct {
	Kind   models.DatasetKind  `json:"kind"`
	Batch  *models.UploadBatch `json:"batch,omitempty"`
	Stored bool                `json:"stored"`
}

// ProfileForm is the editable part of a profile
type ProfileForm struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Settings    models.ProfileSettings `json:"settings"`
}
