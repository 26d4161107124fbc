package profiles

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/mapping"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

// Service manages mapping profiles: the builtin ones the engine ships
// with plus org-defined ones persisted in the database.
type Service struct {
	engine *mapping.Engine
	repo   repository.MappingProfileRepository
	logger *slog.Logger
}

func NewService(engine *mapping.Engine, repo repository.MappingProfileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = mapping.NewEngine(logger)
	}
	return &Service{
		engine: engine,
		repo:   repo,
		logger: logger,
	}
}

// LoadPersisted registers every stored profile with the engine. Invalid
// rows are skipped with a warning so one bad profile cannot block
// startup. Returns the number of profiles loaded.
func (s *Service) LoadPersisted(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	stored, err := s.repo.ListByOrg(ctx, "")
	if err != nil {
		return 0, common.WrapError(err, "load mapping profiles")
	}

	loaded := 0
	for _, profile := range stored {
		if s.isBuiltin(profile.ID) {
			s.logger.Warn("profiles.load.skipped_builtin_id", "profile_id", profile.ID)
			continue
		}
		if err := s.engine.Register(profile); err != nil {
			s.logger.Warn("profiles.load.invalid", "profile_id", profile.ID, "error", err)
			continue
		}
		loaded++
	}
	s.logger.Info("profiles.load.done", "loaded", loaded, "stored", len(stored))
	return loaded, nil
}

// Save validates, persists and registers a profile. Builtin profile IDs
// cannot be overwritten.
func (s *Service) Save(ctx context.Context, profile *entity.MappingProfile) error {
	if profile == nil {
		return common.NewAppError("PROFILE_INVALID", "profile is required", common.ErrInvalidInput)
	}
	profile.ID = strings.TrimSpace(profile.ID)
	profile.Name = strings.TrimSpace(profile.Name)
	if err := common.NewValidator().
		Field("id", profile.ID, common.Required, common.MaxLen(64)).
		Field("name", profile.Name, common.Required, common.MaxLen(120)).
		Error(); err != nil {
		return err
	}
	if s.isBuiltin(profile.ID) {
		return common.NewAppError("PROFILE_BUILTIN",
			"builtin profiles cannot be modified", common.ErrBuiltinProfile)
	}
	if err := mapping.ValidateProfile(profile); err != nil {
		return err
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profile.Builtin = false

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, profile); err != nil {
			return common.WrapError(err, "persist mapping profile")
		}
	}
	if err := s.engine.Register(profile); err != nil {
		return err
	}

	s.logger.Info("profiles.save.ok", "profile_id", profile.ID, "name", profile.Name)
	return nil
}

// Delete removes a stored profile and unregisters it from the engine.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return common.NewAppError("PROFILE_INVALID", "profile id is required", common.ErrInvalidInput)
	}
	if s.isBuiltin(id) {
		return common.NewAppError("PROFILE_BUILTIN",
			"builtin profiles cannot be deleted", common.ErrBuiltinProfile)
	}

	if !s.engine.Remove(id) {
		return common.NewAppError("PROFILE_NOT_FOUND", "profile "+id+" is not registered", common.ErrNotFound)
	}
	if s.repo != nil {
		// tolerate rows that were never persisted
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}

	s.logger.Info("profiles.delete.ok", "profile_id", id)
	return nil
}

// Get returns a registered profile by ID.
func (s *Service) Get(id string) (*entity.MappingProfile, error) {
	profile, ok := s.engine.Get(strings.TrimSpace(id))
	if !ok {
		return nil, common.NewAppError("PROFILE_NOT_FOUND", "profile "+id+" is not registered", common.ErrNotFound)
	}
	return profile, nil
}

// List returns the profiles visible to an organization, builtins included.
func (s *Service) List(orgID string) []*entity.MappingProfile {
	return s.engine.List(orgID)
}

func (s *Service) isBuiltin(id string) bool {
	if existing, ok := s.engine.Get(id); ok && existing.Builtin {
		return true
	}
	return false
}
