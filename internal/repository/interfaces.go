package repository

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// Sentinel errors wrapped by the repositories
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// DatasetRepository defines the interface for uploaded dataset access.
// Replace methods delete every row of their kind before inserting the new
// batch and must run inside WithTransaction.
type DatasetRepository interface {
	// Full-replace uploads
	ReplaceAttractiveness(batch *models.UploadBatch, records []models.AttractivenessRecord) error
	ReplaceOpportunities(batch *models.UploadBatch, records []models.OpportunityRecord) error
	ReplaceDeposits(batch *models.UploadBatch, records []models.DepositRecord) error

	// Reads
	ListAttractiveness() ([]models.AttractivenessRecord, error)
	ListOpportunities() ([]models.OpportunityRecord, error)
	ListDeposits() ([]models.DepositRecord, error)
	LatestBatch(kind models.DatasetKind) (*models.UploadBatch, error)
}

// ProfileRepository defines the interface for saved engine configurations
type ProfileRepository interface {
	GetByID(id uuid.UUID) (*models.Profile, error)
	List() ([]models.Profile, error)
	Create(profile *models.Profile) error
	Update(profile *models.Profile) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Datasets DatasetRepository
	Profiles ProfileRepository
	Tx       TransactionManager
}
