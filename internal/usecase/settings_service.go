package usecase

import (
	"context"

	"github.com/mealtrack/backend/internal/domain"
)

// SettingsService wraps settings persistence with invariant checks.
type SettingsService struct {
	settings domain.SettingsRepository
}

func NewSettingsService(settings domain.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the user's settings, or ErrSettingsNotFound before onboarding.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	return s.settings.Get(ctx, userID)
}

// Upsert validates and stores the settings.
func (s *SettingsService) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.settings.Upsert(ctx, settings)
}

// Expected derives the user's per-day macro targets.
func (s *SettingsService) Expected(ctx context.Context, userID string) (*domain.ExpectedMacros, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	expected := ExpectedMacros(settings)
	return &expected, nil
}
