package services

import (
	"github.com/google/uuid"

	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/repository"
)

// MockDatasetRepository implements DatasetRepository for testing
type MockDatasetRepository struct {
	attractiveness []models.AttractivenessRecord
	opportunities  []models.OpportunityRecord
	deposits       []models.DepositRecord
	batches        map[models.DatasetKind]models.UploadBatch
	err            error
}

func NewMockDatasetRepository() *MockDatasetRepository {
	return &MockDatasetRepository{batches: make(map[models.DatasetKind]models.UploadBatch)}
}

func (m *MockDatasetRepository) record(batch *models.UploadBatch) error {
	if m.err != nil {
		return m.err
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	m.batches[batch.Kind] = *batch
	return nil
}

func (m *MockDatasetRepository) ReplaceAttractiveness(batch *models.UploadBatch, records []models.AttractivenessRecord) error {
	if err := m.record(batch); err != nil {
		return err
	}
	m.attractiveness = records
	return nil
}

func (m *MockDatasetRepository) ReplaceOpportunities(batch *models.UploadBatch, records []models.OpportunityRecord) error {
	if err := m.record(batch); err != nil {
		return err
	}
	m.opportunities = records
	return nil
}

func (m *MockDatasetRepository) ReplaceDeposits(batch *models.UploadBatch, records []models.DepositRecord) error {
	if err := m.record(batch); err != nil {
		return err
	}
	m.deposits = records
	return nil
}

func (m *MockDatasetRepository) ListAttractiveness() ([]models.AttractivenessRecord, error) {
	return m.attractiveness, m.err
}

func (m *MockDatasetRepository) ListOpportunities() ([]models.OpportunityRecord, error) {
	return m.opportunities, m.err
}

func (m *MockDatasetRepository) ListDeposits() ([]models.DepositRecord, error) {
	return m.deposits, m.err
}

func (m *MockDatasetRepository) LatestBatch(kind models.DatasetKind) (*models.UploadBatch, error) {
	batch, ok := m.batches[kind]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &batch, nil
}

// MockProfileRepository implements ProfileRepository for testing
type MockProfileRepository struct {
	profiles map[uuid.UUID]models.Profile
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[uuid.UUID]models.Profile)}
}

func (m *MockProfileRepository) GetByID(id uuid.UUID) (*models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *MockProfileRepository) List() ([]models.Profile, error) {
	out := []models.Profile{}
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProfileRepository) Create(profile *models.Profile) error {
	for _, p := range m.profiles {
		if p.Name == profile.Name {
			return repository.ErrDuplicate
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MockProfileRepository) Update(profile *models.Profile) error {
	if _, ok := m.profiles[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MockProfileRepository) Delete(id uuid.UUID) error {
	if _, ok := m.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

// MockTransactionManager runs the function against the same repositories
type MockTransactionManager struct {
	repos *repository.Repositories
}

func (m *MockTransactionManager) WithTransaction(fn func(repos *repository.Repositories) error) error {
	return fn(m.repos)
}

func newMockRepositories() (*repository.Repositories, *MockDatasetRepository, *MockProfileRepository) {
	datasets := NewMockDatasetRepository()
	profiles := NewMockProfileRepository()
	repos := &repository.Repositories{Datasets: datasets, Profiles: profiles}
	repos.Tx = &MockTransactionManager{repos: repos}
	return repos, datasets, profiles
}
