package api

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/msa-market-engine/internal/database"
	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/ingest"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/services"
)

// MockDatasetService implements services.DatasetService for testing
type MockDatasetService struct {
	deposits   []models.DepositRecord
	lastFormat ingest.Format
	lastBody   string
	batch      *models.UploadBatch
}

func (m *MockDatasetService) Attractiveness() ([]models.AttractivenessRecord, error) {
	return []models.AttractivenessRecord{}, nil
}

func (m *MockDatasetService) Opportunities() ([]models.OpportunityRecord, error) {
	return []models.OpportunityRecord{}, nil
}

func (m *MockDatasetService) Deposits() ([]models.DepositRecord, error) {
	return m.deposits, nil
}

func (m *MockDatasetService) Upload(kind models.DatasetKind, filename string, format ingest.Format, r io.Reader) (*services.UploadResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.lastFormat = format
	m.lastBody = string(body)
	if strings.TrimSpace(m.lastBody) == "" {
		return nil, errors.ValidationError("dataset contains no valid rows", nil)
	}

	rows := strings.Count(strings.TrimSpace(m.lastBody), "\n")
	m.batch = &models.UploadBatch{
		ID:         uuid.New(),
		Kind:       kind,
		SourceName: filename,
		Format:     string(format),
		RowCount:   rows,
		CreatedAt:  time.Now(),
	}
	return &services.UploadResult{Batch: *m.batch, Report: ingest.Report{Rows: rows}}, nil
}

func (m *MockDatasetService) Summary(kind models.DatasetKind) (*services.DatasetSummary, error) {
	if m.batch == nil || m.batch.Kind != kind {
		return &services.DatasetSummary{Kind: kind}, nil
	}
	return &services.DatasetSummary{Kind: kind, Batch: m.batch, Stored: true}, nil
}

// MockProfileService implements services.ProfileService for testing
type MockProfileService struct {
	profiles map[string]*models.Profile
}

func NewMockProfileService() *MockProfileService {
	return &MockProfileService{profiles: make(map[string]*models.Profile)}
}

func (m *MockProfileService) List() ([]models.Profile, error) {
	out := []models.Profile{}
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (m *MockProfileService) Get(id string) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.InvalidInput("invalid profile ID", err)
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, errors.NotFound("profile not found", nil)
	}
	return p, nil
}

func (m *MockProfileService) Create(form services.ProfileForm) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.Name == form.Name {
			return nil, errors.Conflict("a profile with this name already exists", nil)
		}
	}
	p := &models.Profile{ID: uuid.New(), Name: form.Name, Description: form.Description, Settings: form.Settings}
	m.profiles[p.ID.String()] = p
	return p, nil
}

func (m *MockProfileService) Update(id string, form services.ProfileForm) (*models.Profile, error) {
	p, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	p.Name = form.Name
	p.Description = form.Description
	p.Settings = form.Settings
	return p, nil
}

func (m *MockProfileService) Delete(id string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	delete(m.profiles, id)
	return nil
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	err error
}

func (m *MockHealthChecker) HealthCheck() error {
	return m.err
}

func (m *MockHealthChecker) GetStats() database.PoolStats {
	return database.PoolStats{MaxOpenConnections: 25, OpenConnections: 1, Idle: 1}
}
