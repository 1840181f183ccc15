package services

import (
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ajharbinger/msa-market-engine/internal/errors"
	"github.com/ajharbinger/msa-market-engine/internal/logger"
	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/repository"
	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

const maxProfileNameLength = 255

// profileService implements ProfileService
type profileService struct {
	repos   *repository.Repositories
	profile *config.EngineProfile
	logger  logger.Logger
}

// newProfileService creates a profile service. nil repos disables it.
func newProfileService(repos *repository.Repositories, profile *config.EngineProfile, log logger.Logger) ProfileService {
	if profile == nil {
		profile = config.DefaultEngineProfile()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &profileService{repos: repos, profile: profile, logger: log}
}

// NewProfileService creates a standalone profile service
func NewProfileService(repos *repository.Repositories, profile *config.EngineProfile, log logger.Logger) ProfileService {
	return newProfileService(repos, profile, log)
}

func (s *profileService) available(operation string) error {
	if s.repos == nil {
		return errors.ServiceUnavailable("profiles require a database", nil).WithOperation(operation)
	}
	return nil
}

func parseProfileID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.InvalidInput("invalid profile ID", err)
	}
	return parsed, nil
}

// storageError maps repository sentinels onto AppErrors
func storageError(err error, message, operation string) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound("profile not found", err).WithOperation(operation)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.Conflict("a profile with this name already exists", err).WithOperation(operation)
	}
	return errors.DatabaseError(message, err).WithOperation(operation)
}

// validateForm checks the form and returns normalized settings
func (s *profileService) validateForm(form ProfileForm) (string, models.ProfileSettings, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return "", form.Settings, errors.ValidationError("profile name is required", nil)
	}
	if len(name) > maxProfileNameLength {
		return "", form.Settings, errors.ValidationError("profile name is too long", nil)
	}

	settings := form.Settings
	switch settings.Mode {
	case "":
		settings.Mode = models.ModeBuckets
	case models.ModeBuckets, models.ModeWeights:
	default:
		return "", settings, errors.ValidationError("unknown scoring mode", nil).WithDetails(string(settings.Mode))
	}

	if err := settings.Weights.Validate(); err != nil {
		return "", settings, errors.ValidationError("invalid weights", err)
	}
	assignments, err := normalizeAssignments(settings.BucketAssignments)
	if err != nil {
		return "", settings, err
	}
	settings.BucketAssignments = assignments

	if bw := settings.BucketWeights; bw != nil && (bw.High < 0 || bw.Medium < 0) {
		return "", settings, errors.ValidationError("bucket weights must not be negative", nil)
	}
	if h := settings.HaircutPct; h != nil && (*h < 0 || *h > s.profile.Acquisition.MaxHaircutPct) {
		return "", settings, errors.ValidationError("haircut is outside the allowed range", nil)
	}
	return name, settings, nil
}

// List returns all saved profiles
func (s *profileService) List() ([]models.Profile, error) {
	if err := s.available("List"); err != nil {
		return nil, err
	}
	profiles, err := s.repos.Profiles.List()
	if err != nil {
		return nil, storageError(err, "failed to list profiles", "List")
	}
	return profiles, nil
}

// Get returns one profile
func (s *profileService) Get(id string) (*models.Profile, error) {
	if err := s.available("Get"); err != nil {
		return nil, err
	}
	profileID, err := parseProfileID(id)
	if err != nil {
		return nil, err
	}
	profile, err := s.repos.Profiles.GetByID(profileID)
	if err != nil {
		return nil, storageError(err, "failed to get profile", "Get")
	}
	return profile, nil
}

// Create saves a new profile
func (s *profileService) Create(form ProfileForm) (*models.Profile, error) {
	if err := s.available("Create"); err != nil {
		return nil, err
	}
	name, settings, err := s.validateForm(form)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{Name: name, Description: form.Description, Settings: settings}
	if err := s.repos.Profiles.Create(profile); err != nil {
		return nil, storageError(err, "failed to create profile", "Create")
	}

	s.logger.Info("Profile created", "profile_id", profile.ID, "name", profile.Name)
	return profile, nil
}

// Update replaces a profile's editable fields
func (s *profileService) Update(id string, form ProfileForm) (*models.Profile, error) {
	if err := s.available("Update"); err != nil {
		return nil, err
	}
	profileID, err := parseProfileID(id)
	if err != nil {
		return nil, err
	}
	name, settings, err := s.validateForm(form)
	if err != nil {
		return nil, err
	}

	var updated *models.Profile
	err = s.repos.Tx.WithTransaction(func(repos *repository.Repositories) error {
		existing, err := repos.Profiles.GetByID(profileID)
		if err != nil {
			return err
		}
		existing.Name = name
		existing.Description = form.Description
		existing.Settings = settings
		if err := repos.Profiles.Update(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, storageError(err, "failed to update profile", "Update")
	}

	s.logger.Info("Profile updated", "profile_id", updated.ID)
	return updated, nil
}

// Delete removes a profile
func (s *profileService) Delete(id string) error {
	if err := s.available("Delete"); err != nil {
		return err
	}
	profileID, err := parseProfileID(id)
	if err != nil {
		return err
	}
	if err := s.repos.Profiles.Delete(profileID); err != nil {
		return storageError(err, "failed to delete profile", "Delete")
	}

	s.logger.Info("Profile deleted", "profile_id", profileID)
	return nil
}
