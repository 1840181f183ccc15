package services

import (
	"time"

	"github.com/ajharbinger/msa-market-engine/internal/acquisition"
	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/filter"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/market"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/scoring"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

// analyticsService implements AnalyticsService
type analyticsService struct {
	profile    *config.EngineProfile
	store      DatasetReader
	scorer     *scoring.ScoreEngine
	buckets    *scoring.BucketScoreEngine
	filters    *filter.FilterEngine
	aggregator *market.MarketAggregator
	simulator  *acquisition.Simulator
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewAnalyticsService creates the analytics service. store may be nil, in
// which case requests for stored data are rejected.
func NewAnalyticsService(profile *config.EngineProfile, store DatasetReader, log logger.Logger, m *metrics.Metrics) AnalyticsService {
	if profile == nil {
		profile = config.DefaultEngineProfile()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &analyticsService{
		profile:    profile,
		store:      store,
		scorer:     scoring.NewScoreEngine(),
		buckets:    scoring.NewBucketScoreEngine(),
		filters:    filter.NewFilterEngine(),
		aggregator: market.NewMarketAggregator(),
		simulator: acquisition.NewSimulator(acquisition.Config{
			Thresholds: acquisition.Thresholds{
				DeltaHHI:        profile.HHI.DeltaThreshold,
				ConcentratedHHI: profile.HHI.ConcentratedThreshold,
			},
			TopMSAs:       profile.Acquisition.TopMSAs,
			MaxHaircutPct: profile.Acquisition.MaxHaircutPct,
		}),
		logger:  log,
		metrics: m,
	}
}

// DefaultWeights returns a copy of the configured default weights
func (s *analyticsService) DefaultWeights() models.Weights {
	return s.profile.Weights()
}

func (s *analyticsService) requireStore(operation string) error {
	if s.store == nil {
		return errors.ServiceUnavailable("stored datasets require a database", nil).WithOperation(operation)
	}
	return nil
}

func (s *analyticsService) attractiveness(records []models.AttractivenessRecord, useStored bool, operation string) ([]models.AttractivenessRecord, error) {
	if !useStored {
		return records, nil
	}
	if err := s.requireStore(operation); err != nil {
		return nil, err
	}
	return s.store.Attractiveness()
}

// inlineOpportunities converts shares sent in a request body to percent.
// Stored datasets were converted on upload and never pass through here.
func (s *analyticsService) inlineOpportunities(records []models.OpportunityRecord) []models.OpportunityRecord {
	if len(records) == 0 {
		return records
	}
	unit := s.profile.ShareUnit()
	out := make([]models.OpportunityRecord, len(records))
	for i, r := range records {
		r.MarketSharePct = models.SharePercent(r.MarketSharePct, unit)
		out[i] = r
	}
	return out
}

func (s *analyticsService) inlineDeposits(records []models.DepositRecord) []models.DepositRecord {
	if len(records) == 0 {
		return records
	}
	unit := s.profile.ShareUnit()
	out := make([]models.DepositRecord, len(records))
	for i, r := range records {
		r.MarketSharePct = models.SharePercent(r.MarketSharePct, unit)
		out[i] = r
	}
	return out
}

func (s *analyticsService) opportunities(records []models.OpportunityRecord, useStored bool, operation string) ([]models.OpportunityRecord, error) {
	if !useStored {
		return s.inlineOpportunities(records), nil
	}
	if err := s.requireStore(operation); err != nil {
		return nil, err
	}
	return s.store.Opportunities()
}

func withOperation(err error, operation string) error {
	if appErr, ok := errors.As(err); ok {
		return appErr.WithOperation(operation)
	}
	return err
}

// normalizeAssignments validates bucket names and parameter values and
// returns a dense copy.
func normalizeAssignments(assignments []models.BucketAssignment) ([]models.BucketAssignment, error) {
	out := make([]models.BucketAssignment, len(assignments))
	for i, a := range assignments {
		if !a.Parameter.Valid() {
			return nil, errors.InvalidInput("unknown parameter in bucket assignment", nil)
		}
		bucket, err := models.ParseBucket(string(a.Bucket))
		if err != nil {
			return nil, errors.InvalidInput("invalid bucket assignment", err).WithDetails(a.Parameter.ID())
		}
		value, ok := models.CanonicalValue(a.Parameter.Domain(), a.TargetValue)
		if !ok {
			return nil, errors.InvalidInput("unknown target value for "+a.Parameter.ID(), nil).WithDetails(a.TargetValue)
		}
		out[i] = models.BucketAssignment{Parameter: a.Parameter, TargetValue: value, Bucket: bucket, Position: a.Position}
	}
	return scoring.Normalize(out), nil
}

// resolvedConfig is a validated ScoringConfig
type resolvedConfig struct {
	mode          models.ScoringMode
	weights       models.Weights
	assignments   []models.BucketAssignment
	bucketWeights models.BucketWeights
}

func (rc *resolvedConfig) hasScoringBuckets() bool {
	return len(scoring.InBucket(rc.assignments, models.BucketHigh))+len(scoring.InBucket(rc.assignments, models.BucketMedium)) > 0
}

func (s *analyticsService) resolveConfig(cfg ScoringConfig) (*resolvedConfig, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = models.ModeBuckets
		if len(cfg.Weights) > 0 {
			mode = models.ModeWeights
		}
	}

	assignments, err := normalizeAssignments(cfg.BucketAssignments)
	if err != nil {
		return nil, err
	}

	rc := &resolvedConfig{mode: mode, assignments: assignments, bucketWeights: s.profile.DefaultBucketWeights()}
	switch mode {
	case models.ModeWeights:
		rc.weights = cfg.Weights
		if len(rc.weights) == 0 {
			rc.weights = s.profile.Weights()
		}
		if err := rc.weights.Validate(); err != nil {
			return nil, errors.InvalidInput("invalid weights", err)
		}
		if total := rc.weights.Total(); total != 100 {
			s.logger.Warn("Weights do not sum to 100", "total", total)
		}
	case models.ModeBuckets:
		if cfg.BucketWeights != nil {
			rc.bucketWeights = *cfg.BucketWeights
		}
		if rc.bucketWeights.High < 0 || rc.bucketWeights.Medium < 0 {
			return nil, errors.InvalidInput("bucket weights must not be negative", nil)
		}
		if total := rc.bucketWeights.High + rc.bucketWeights.Medium; total != 100 {
			s.logger.Warn("Bucket weights do not sum to 100", "total", total)
		}
		if rc.hasScoringBuckets() {
			rc.weights = scoring.ConvertBucketsToWeights(rc.assignments, rc.bucketWeights)
		} else {
			rc.weights = s.profile.Weights()
		}
	default:
		return nil, errors.InvalidInput("unknown scoring mode", nil).WithDetails(string(mode))
	}
	return rc, nil
}

func (s *analyticsService) score(records []models.AttractivenessRecord, rc *resolvedConfig) []models.AttractivenessRecord {
	if rc.mode == models.ModeWeights {
		return s.scorer.Recalculate(records, rc.weights)
	}
	if !rc.hasScoringBuckets() {
		// nothing to score by: exclusions still apply, configured defaults score
		kept := make([]models.AttractivenessRecord, 0, len(records))
		for _, r := range records {
			if !scoring.IsExcluded(r, rc.assignments) {
				kept = append(kept, r)
			}
		}
		return s.scorer.Recalculate(kept, rc.weights)
	}
	return s.buckets.Recalculate(records, rc.assignments, rc.bucketWeights)
}

func (s *analyticsService) scoreResult(records []models.AttractivenessRecord, rc *resolvedConfig, breakdown bool) *ScoreResult {
	started := time.Now()
	scored := s.score(records, rc)
	s.metrics.ObserveEngine("score", len(records), time.Since(started))

	result := &ScoreResult{
		Mode:         rc.mode,
		Records:      scored,
		Weights:      rc.weights,
		WeightsTotal: rc.weights.Total(),
		Excluded:     len(records) - len(scored),
		Categories:   make(map[models.Category]int),
	}
	if rc.mode == models.ModeBuckets {
		bw := rc.bucketWeights
		result.BucketWeights = &bw
	}
	for _, r := range scored {
		result.Categories[r.AttractivenessCategory]++
	}
	if breakdown {
		result.Breakdown = make(map[string][]scoring.ParameterScore, len(scored))
		for _, r := range scored {
			result.Breakdown[r.Key()] = s.scorer.Breakdown(r, rc.weights)
		}
	}
	return result
}

// Score recalculates scores and categories for every record
func (s *analyticsService) Score(req ScoreRequest) (*ScoreResult, error) {
	records, err := s.attractiveness(req.Records, req.UseStoredData, "Score")
	if err != nil {
		return nil, err
	}
	rc, err := s.resolveConfig(req.ScoringConfig)
	if err != nil {
		return nil, withOperation(err, "Score")
	}

	result := s.scoreResult(records, rc, req.IncludeBreakdown)
	s.logger.Info("Scored records", "mode", rc.mode, "records", len(records), "scored", len(result.Records), "excluded", result.Excluded)
	return result, nil
}

func (s *analyticsService) filter(records []models.AttractivenessRecord, filters models.GlobalFilters, assignments []models.BucketAssignment, ranges *models.FilterBucketRanges) FilterResult {
	started := time.Now()
	r := s.filters.ComputeRanges(records)
	if ranges != nil {
		r = *ranges
	}
	visible := s.filters.ApplyGlobalFilters(records, filters, assignments, r)
	s.metrics.ObserveEngine("filter", len(records), time.Since(started))

	return FilterResult{
		Records:      visible,
		Total:        len(records),
		Visible:      len(visible),
		Ranges:       r,
		RegionCounts: filter.RegionCounts(visible),
	}
}

// Filter applies the global filters and exclusion bucket
func (s *analyticsService) Filter(req FilterRequest) (*FilterResult, error) {
	records, err := s.attractiveness(req.Records, req.UseStoredData, "Filter")
	if err != nil {
		return nil, err
	}
	assignments, err := normalizeAssignments(req.BucketAssignments)
	if err != nil {
		return nil, withOperation(err, "Filter")
	}

	result := s.filter(records, req.Filters, assignments, req.Ranges)
	s.logger.Info("Filtered records", "records", result.Total, "visible", result.Visible)
	return &result, nil
}

// Analyze filters, scores the visible records and aggregates providers over
// the visible MSAs
func (s *analyticsService) Analyze(req AnalyzeRequest) (*AnalyzeResult, error) {
	records, err := s.attractiveness(req.Records, req.UseStoredData, "Analyze")
	if err != nil {
		return nil, err
	}
	opps, err := s.opportunities(req.Opportunities, req.UseStoredData, "Analyze")
	if err != nil {
		return nil, err
	}
	rc, err := s.resolveConfig(req.ScoringConfig)
	if err != nil {
		return nil, withOperation(err, "Analyze")
	}

	filtered := s.filter(records, req.Filters, rc.assignments, req.Ranges)
	scored := s.scoreResult(filtered.Records, rc, false)

	started := time.Now()
	visibleOpps := s.filters.RestrictOpportunities(opps, filter.VisibleMSAs(filtered.Records))
	providers := s.aggregator.Aggregate(visibleOpps, market.Options{RankedOnly: req.RankedOnly})
	s.metrics.ObserveEngine("aggregate", len(visibleOpps), time.Since(started))

	s.logger.Info("Analyzed market",
		"records", filtered.Total,
		"visible", filtered.Visible,
		"scored", len(scored.Records),
		"providers", len(providers.Providers),
	)
	return &AnalyzeResult{Filter: filtered, Score: *scored, Providers: providers}, nil
}

func visibleSet(msas []string) map[string]bool {
	if len(msas) == 0 {
		return nil
	}
	set := make(map[string]bool, len(msas))
	for _, m := range msas {
		set[filter.MSAKey(m)] = true
	}
	return set
}

// Providers aggregates opportunity records per provider
func (s *analyticsService) Providers(req ProvidersRequest) (*market.Result, error) {
	opps, err := s.opportunities(req.Opportunities, req.UseStoredData, "Providers")
	if err != nil {
		return nil, err
	}
	if visible := visibleSet(req.VisibleMSAs); visible != nil {
		opps = s.filters.RestrictOpportunities(opps, visible)
	}

	started := time.Now()
	result := s.aggregator.Aggregate(opps, market.Options{RankedOnly: req.RankedOnly})
	s.metrics.ObserveEngine("aggregate", len(opps), time.Since(started))

	s.logger.Info("Aggregated providers", "records", len(opps), "providers", len(result.Providers))
	return &result, nil
}

func firstProvider(records []models.OpportunityRecord) string {
	for _, r := range records {
		if r.Provider != "" {
			return r.Provider
		}
	}
	return ""
}

// AcquisitionImpact simulates a full acquisition of target by acquirer
func (s *analyticsService) AcquisitionImpact(req AcquisitionRequest) (*acquisition.Impact, error) {
	opps := make([]models.OpportunityRecord, 0, len(req.Opportunities)+len(req.AcquirerRecords)+len(req.TargetRecords))
	deposits := s.inlineDeposits(req.Deposits)
	if req.UseStoredData {
		if err := s.requireStore("AcquisitionImpact"); err != nil {
			return nil, err
		}
		stored, err := s.store.Opportunities()
		if err != nil {
			return nil, err
		}
		opps = append(opps, stored...)
		if deposits, err = s.store.Deposits(); err != nil {
			return nil, err
		}
	}
	opps = append(opps, s.inlineOpportunities(req.Opportunities)...)
	opps = append(opps, s.inlineOpportunities(req.AcquirerRecords)...)
	opps = append(opps, s.inlineOpportunities(req.TargetRecords)...)

	acquirer, target := req.Acquirer, req.Target
	if acquirer == "" {
		acquirer = firstProvider(req.AcquirerRecords)
	}
	if target == "" {
		target = firstProvider(req.TargetRecords)
	}
	if acquirer == "" || target == "" {
		return nil, errors.InvalidInput("acquirer and target are required", nil).WithOperation("AcquisitionImpact")
	}
	if market.ProviderKey(acquirer) == market.ProviderKey(target) {
		return nil, errors.InvalidInput("acquirer and target must differ", nil).WithOperation("AcquisitionImpact")
	}
	if h := req.HaircutPct; h != nil && (*h < 0 || *h > s.simulator.Config().MaxHaircutPct) {
		s.logger.Warn("Haircut outside allowed range, clamping", "haircut_pct", *h, "max", s.simulator.Config().MaxHaircutPct)
	}

	if visible := visibleSet(req.VisibleMSAs); visible != nil {
		opps = s.filters.RestrictOpportunities(opps, visible)
		deposits = s.filters.RestrictDeposits(deposits, visible)
	}
	// only the two footprints take part
	opps = append(market.ProviderFootprint(opps, acquirer), market.ProviderFootprint(opps, target)...)

	started := time.Now()
	impact := s.simulator.Simulate(acquisition.Scenario{
		Acquirer:   acquirer,
		Target:     target,
		HaircutPct: req.HaircutPct,
	}, opps, deposits)
	s.metrics.ObserveEngine("acquisition", len(opps), time.Since(started))
	s.metrics.AddFlaggedMSAs(impact.Summary.FlaggedMSAs)

	s.logger.Info("Simulated acquisition",
		"acquirer", acquirer,
		"target", target,
		"msas", impact.Summary.MSAsInUnion,
		"flagged", impact.Summary.FlaggedMSAs,
		"haircut_pct", impact.Summary.HaircutPct,
	)
	return &impact, nil
}

// WeightsFromBuckets converts a bucket layout into flat weights
func (s *analyticsService) WeightsFromBuckets(req BucketsRequest) (*WeightsResult, error) {
	rc, err := s.resolveConfig(ScoringConfig{
		Mode:              models.ModeBuckets,
		BucketAssignments: req.BucketAssignments,
		BucketWeights:     req.BucketWeights,
	})
	if err != nil {
		return nil, withOperation(err, "WeightsFromBuckets")
	}
	return &WeightsResult{Weights: rc.weights, Total: rc.weights.Total()}, nil
}

func (s *analyticsService) parsePair(req AssignRequest) (models.Parameter, string, error) {
	param, err := models.ParseParameter(req.ParameterID)
	if err != nil {
		return 0, "", errors.InvalidInput("unknown parameter", err)
	}
	value, ok := models.CanonicalValue(param.Domain(), req.TargetValue)
	if !ok {
		return 0, "", errors.InvalidInput("unknown target value for "+param.ID(), nil).WithDetails(req.TargetValue)
	}
	return param, value, nil
}

// AssignBucket places a pair into a bucket, moving it out of any other
func (s *analyticsService) AssignBucket(req AssignRequest) ([]models.BucketAssignment, error) {
	assignments, err := normalizeAssignments(req.BucketAssignments)
	if err != nil {
		return nil, err
	}
	param, value, err := s.parsePair(req)
	if err != nil {
		return nil, err
	}
	bucket, err := models.ParseBucket(req.Bucket)
	if err != nil {
		return nil, errors.InvalidInput("unknown bucket", err)
	}
	return scoring.Assign(assignments, param, value, bucket, req.Position), nil
}

// RemoveFromBucket removes a pair from whichever bucket holds it
func (s *analyticsService) RemoveFromBucket(req AssignRequest) ([]models.BucketAssignment, error) {
	assignments, err := normalizeAssignments(req.BucketAssignments)
	if err != nil {
		return nil, err
	}
	param, value, err := s.parsePair(req)
	if err != nil {
		return nil, err
	}
	return scoring.Remove(assignments, param, value), nil
}

// ResolveRegion maps an MSA name and optional coordinates to a region
func (s *analyticsService) ResolveRegion(msa string, lat, lon *float64) RegionResult {
	codes := filter.StateCodes(msa)
	if codes == nil {
		codes = []string{}
	}
	return RegionResult{
		MSA:        msa,
		Region:     filter.ResolveRegion(msa, lat, lon),
		StateCodes: codes,
	}
}
