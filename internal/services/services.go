package services

import (
	"database/sql"
	"io"

	"github.com/ajharbinger/msa-market-engine/internal/acquisition"
	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/market"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/repository"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

// Services contains all application services
type Services struct {
	Analytics AnalyticsService
	Datasets  DatasetService
	Profiles  ProfileService
}

// AnalyticsService runs the scoring, filtering, market and acquisition
// engines over request or stored records
type AnalyticsService interface {
	Score(req ScoreRequest) (*ScoreResult, error)
	Filter(req FilterRequest) (*FilterResult, error)
	Analyze(req AnalyzeRequest) (*AnalyzeResult, error)
	Providers(req ProvidersRequest) (*market.Result, error)
	AcquisitionImpact(req AcquisitionRequest) (*acquisition.Impact, error)

	// Configuration helpers
	DefaultWeights() models.Weights
	WeightsFromBuckets(req BucketsRequest) (*WeightsResult, error)
	AssignBucket(req AssignRequest) ([]models.BucketAssignment, error)
	RemoveFromBucket(req AssignRequest) ([]models.BucketAssignment, error)
	ResolveRegion(msa string, lat, lon *float64) RegionResult
}

// DatasetReader supplies the stored datasets
type DatasetReader interface {
	Attractiveness() ([]models.AttractivenessRecord, error)
	Opportunities() ([]models.OpportunityRecord, error)
	Deposits() ([]models.DepositRecord, error)
}

// DatasetService defines the interface for dataset uploads and reads
type DatasetService interface {
	DatasetReader
	Upload(kind models.DatasetKind, filename string, format ingest.Format, r io.Reader) (*UploadResult, error)
	Summary(kind models.DatasetKind) (*DatasetSummary, error)
}

// ProfileService defines the interface for saved engine configurations
type ProfileService interface {
	List() ([]models.Profile, error)
	Get(id string) (*models.Profile, error)
	Create(form ProfileForm) (*models.Profile, error)
	Update(id string, form ProfileForm) (*models.Profile, error)
	Delete(id string) error
}

// NewServices creates a new Services instance. A nil db leaves the dataset
// and profile services answering SERVICE_UNAVAILABLE.
func NewServices(db *sql.DB, profile *config.EngineProfile, log logger.Logger, m *metrics.Metrics) *Services {
	var repos *repository.Repositories
	if db != nil {
		repos = repository.NewRepositories(db)
	}

	datasets := newDatasetService(repos, profile.ShareUnit(), log, m)
	return &Services{
		Analytics: NewAnalyticsService(profile, datasets, log, m),
		Datasets:  datasets,
		Profiles:  newProfileService(repos, profile, log),
	}
}
