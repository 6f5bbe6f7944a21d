package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// DefaultHistoryLimit bounds the viewing history returned to a user.
const DefaultHistoryLimit = 50

// UserSettings serves what a user has configured and what they have read.
type UserSettings struct {
	prefs    ports.PreferenceRepository
	settings ports.UserSettingsRepository
	cache    ports.CacheStore
	ttl      time.Duration
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserSettings constructs the settings service. prefs is usually the
// CachedPreferences sharing the same cache.
func NewUserSettings(prefs ports.PreferenceRepository, settings ports.UserSettingsRepository, cache ports.CacheStore, ttl time.Duration, logger *slog.Logger) *UserSettings {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UserSettings{
		prefs:    prefs,
		settings: settings,
		cache:    cache,
		ttl:      ttl,
		validate: validator.New(),
		logger:   logger.With("component", "user_settings"),
	}
}

// Preferences collects the followed keywords, publishers and categories
// together with the voice type.
func (u *UserSettings) Preferences(ctx context.Context, userID string) (domain.Preferences, error) {
	keywords, err := u.prefs.UserKeywords(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	publishers, err := u.prefs.PreferredPublisherIDs(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	categories, err := u.prefs.PreferredCategoryIDs(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	voice, err := u.VoiceType(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return domain.Preferences{
		UserID:       userID,
		Keywords:     nonNil(keywords),
		PublisherIDs: nonNil(publishers),
		CategoryIDs:  nonNil(categories),
		VoiceType:    voice,
	}, nil
}

// VoiceType returns the user's voice type through the cache.
func (u *UserSettings) VoiceType(ctx context.Context, userID string) (string, error) {
	key := PreferenceKey(userID, prefVoiceType)
	if raw, ok, err := u.cache.Get(ctx, key); err != nil {
		u.logger.Warn("cache read failed", "key", key, "error", err)
	} else if ok && domain.ValidVoiceType(string(raw)) {
		return string(raw), nil
	}

	voice, err := u.settings.VoiceType(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load voice type of %s: %w", userID, err)
	}
	if err := u.cache.Set(ctx, key, []byte(voice), u.ttl); err != nil {
		u.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return voice, nil
}

// SetVoiceType validates and stores a voice type, then drops the cached one.
func (u *UserSettings) SetVoiceType(ctx context.Context, userID, voiceType string) (string, error) {
	if err := u.validate.Var(voiceType, "required,oneof=male female"); err != nil {
		return "", fmt.Errorf("%w: voice type must be %q or %q", domain.ErrValidation, domain.VoiceTypeMale, domain.VoiceTypeFemale)
	}
	if err := u.settings.SetVoiceType(ctx, userID, voiceType); err != nil {
		return "", fmt.Errorf("set voice type: %w", err)
	}
	if err := u.cache.Delete(ctx, PreferenceKey(userID, prefVoiceType)); err != nil {
		u.logger.Warn("cache invalidation failed", "user_id", userID, "error", err)
	}
	u.logger.Info("voice type updated", "user_id", userID, "voice_type", voiceType)
	return voiceType, nil
}

// History lists the user's viewed articles, most recent first.
func (u *UserSettings) History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	entries, err := u.settings.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", userID, err)
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
