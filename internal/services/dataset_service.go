package services

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/metrics"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/repository"
)

// maxUploadRows caps a single upload
const maxUploadRows = 200000

// datasetService implements DatasetService
type datasetService struct {
	repos   *repository.Repositories
	parser  *ingest.Parser
	logger  logger.Logger
	metrics *metrics.Metrics
}

// newDatasetService creates a dataset service. nil repos disables it.
func newDatasetService(repos *repository.Repositories, unit models.ShareUnit, log logger.Logger, m *metrics.Metrics) DatasetService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &datasetService{
		repos:   repos,
		parser:  ingest.NewParser(unit),
		logger:  log,
		metrics: m,
	}
}

// NewDatasetService creates a standalone dataset service
func NewDatasetService(repos *repository.Repositories, unit models.ShareUnit, log logger.Logger, m *metrics.Metrics) DatasetService {
	return newDatasetService(repos, unit, log, m)
}

func (s *datasetService) available(operation string) error {
	if s.repos == nil {
		return errors.ServiceUnavailable("datasets require a database", nil).WithOperation(operation)
	}
	return nil
}

// Upload parses a file and replaces the stored dataset of its kind
func (s *datasetService) Upload(kind models.DatasetKind, filename string, format ingest.Format, r io.Reader) (*UploadResult, error) {
	if err := s.available("Upload"); err != nil {
		return nil, err
	}

	result, err := s.upload(kind, filename, format, r)
	rows := 0
	if result != nil {
		rows = result.Batch.RowCount
	}
	s.metrics.ObserveUpload(string(kind), rows, err)
	if err != nil {
		s.logger.Error("Dataset upload failed", err, "kind", kind, "filename", filename)
		return nil, err
	}

	s.logger.Info("Dataset uploaded",
		"kind", kind,
		"filename", filename,
		"format", format,
		"rows", result.Report.Rows,
		"skipped", result.Report.Skipped,
		"batch_id", result.Batch.ID,
	)
	return result, nil
}

func (s *datasetService) upload(kind models.DatasetKind, filename string, format ingest.Format, r io.Reader) (*UploadResult, error) {
	table, err := ingest.ReadTable(r, format)
	if err != nil {
		return nil, errors.InvalidInput("failed to read dataset", err).WithOperation("Upload")
	}
	if len(table.Rows) > maxUploadRows {
		return nil, errors.InvalidInput(fmt.Sprintf("too many rows, maximum %d allowed per upload", maxUploadRows), nil).WithOperation("Upload")
	}

	batch := &models.UploadBatch{Kind: kind, SourceName: filename, Format: string(format)}
	var report ingest.Report
	var replace func(repos *repository.Repositories) error

	switch kind {
	case models.DatasetAttractiveness:
		var records []models.AttractivenessRecord
		records, report, err = s.parser.Attractiveness(table)
		replace = func(repos *repository.Repositories) error {
			return repos.Datasets.ReplaceAttractiveness(batch, records)
		}
	case models.DatasetOpportunities:
		var records []models.OpportunityRecord
		records, report, err = s.parser.Opportunities(table)
		replace = func(repos *repository.Repositories) error {
			return repos.Datasets.ReplaceOpportunities(batch, records)
		}
	case models.DatasetDeposits:
		var records []models.DepositRecord
		records, report, err = s.parser.Deposits(table)
		replace = func(repos *repository.Repositories) error {
			return repos.Datasets.ReplaceDeposits(batch, records)
		}
	default:
		return nil, errors.InvalidInput("unknown dataset kind", nil).WithDetails(string(kind))
	}
	if err != nil {
		return nil, errors.ValidationError("dataset does not match the expected columns", err).WithOperation("Upload")
	}
	if report.Rows == 0 {
		return nil, errors.ValidationError("dataset contains no valid rows", nil).WithOperation("Upload")
	}

	batch.RowCount = report.Rows
	batch.SkippedRows = report.Skipped
	if err := s.repos.Tx.WithTransaction(replace); err != nil {
		return nil, errors.DatabaseError("failed to store dataset", err).WithOperation("Upload")
	}
	return &UploadResult{Batch: *batch, Report: report}, nil
}

// Attractiveness returns the stored attractiveness dataset
func (s *datasetService) Attractiveness() ([]models.AttractivenessRecord, error) {
	if err := s.available("Attractiveness"); err != nil {
		return nil, err
	}
	records, err := s.repos.Datasets.ListAttractiveness()
	if err != nil {
		return nil, errors.DatabaseError("failed to load attractiveness dataset", err).WithOperation("Attractiveness")
	}
	return records, nil
}

// Opportunities returns the stored opportunity dataset
func (s *datasetService) Opportunities() ([]models.OpportunityRecord, error) {
	if err := s.available("Opportunities"); err != nil {
		return nil, err
	}
	records, err := s.repos.Datasets.ListOpportunities()
	if err != nil {
		return nil, errors.DatabaseError("failed to load opportunity dataset", err).WithOperation("Opportunities")
	}
	return records, nil
}

// Deposits returns the stored deposit dataset
func (s *datasetService) Deposits() ([]models.DepositRecord, error) {
	if err := s.available("Deposits"); err != nil {
		return nil, err
	}
	records, err := s.repos.Datasets.ListDeposits()
	if err != nil {
		return nil, errors.DatabaseError("failed to load deposit dataset", err).WithOperation("Deposits")
	}
	return records, nil
}

// Summary describes the latest upload of a kind
func (s *datasetService) Summary(kind models.DatasetKind) (*DatasetSummary, error) {
	if err := s.available("Summary"); err != nil {
		return nil, err
	}
	batch, err := s.repos.Datasets.LatestBatch(kind)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return &DatasetSummary{Kind: kind}, nil
		}
		return nil, errors.DatabaseError("failed to load dataset summary", err).WithOperation("Summary")
	}
	return &DatasetSummary{Kind: kind, Batch: batch, Stored: true}, nil
}
