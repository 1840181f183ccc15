package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

const uniqueViolation = "23505"

// profileRepository implements ProfileRepository
type profileRepository struct {
	db dbExecutor
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db dbExecutor) ProfileRepository {
	return &profileRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// GetByID retrieves a profile by ID
func (r *profileRepository) GetByID(id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRow(`
		SELECT id, name, description, settings, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Settings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// List retrieves all profiles ordered by name
func (r *profileRepository) List() ([]models.Profile, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, settings, created_at, updated_at
		FROM profiles
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// Create inserts a new profile
func (r *profileRepository) Create(profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO profiles (id, name, description, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, profile.ID, profile.Name, profile.Description, profile.Settings, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %q: %w", profile.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update replaces a profile's name, description and settings
func (r *profileRepository) Update(profile *models.Profile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE profiles
		SET name = $2, description = $3, settings = $4, updated_at = $5
		WHERE id = $1
	`, profile.ID, profile.Name, profile.Description, profile.Settings, profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %q: %w", profile.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", profile.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a profile
func (r *profileRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}
