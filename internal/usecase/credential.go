package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/comment-assistant/internal/model"
)

// SettingStore is a small persisted key/value capability.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type CredentialSource string

const (
	CredentialSourceNone  CredentialSource = "none"
	CredentialSourceSaved CredentialSource = "saved"
	CredentialSourceEnv   CredentialSource = "environment"
)

// CredentialUsecase resolves the API key: a saved key wins over the one from the environment.
type CredentialUsecase struct {
	store    SettingStore
	fallback string
}

func NewCredentialUsecase(store SettingStore, fallback string) *CredentialUsecase {
	return &CredentialUsecase{store: store, fallback: strings.TrimSpace(fallback)}
}

func (uc *CredentialUsecase) Resolve(ctx context.Context) (string, CredentialSource, error) {
	if uc.store != nil {
		key, ok, err := uc.store.Get(ctx, model.CredentialSettingKey)
		if err != nil {
			return "", CredentialSourceNone, fmt.Errorf("failed to read saved credential: %w", err)
		}
		if ok && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), CredentialSourceSaved, nil
		}
	}
	if uc.fallback != "" {
		return uc.fallback, CredentialSourceEnv, nil
	}
	return "", CredentialSourceNone, ErrCredentialRequired
}

func (uc *CredentialUsecase) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrCredentialRequired)
	}
	if uc.store == nil {
		return fmt.Errorf("no setting store configured")
	}
	return uc.store.Set(ctx, model.CredentialSettingKey, key)
}

func (uc *CredentialUsecase) Clear(ctx context.Context) error {
	if uc.store == nil {
		return nil
	}
	return uc.store.Delete(ctx, model.CredentialSettingKey)
}
