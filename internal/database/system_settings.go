package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/models"
)

// VaultEncryptionKeySetting holds the generated vault key when none is configured.
const VaultEncryptionKeySetting = "vault.encryption_key"

// GetSystemSetting retrieves a system setting by key. Returns an empty string when not found.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("system settings: db is nil")
	}

	var setting models.SystemSetting
	err := db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).Take(&setting).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return "", nil
	}
	return "", fmt.Errorf("system settings: get %q: %w", key, err)
}

// UpsertSystemSetting stores or updates a system setting value.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return fmt.Errorf("system settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("system settings: key is required")
	}

	record := models.SystemSetting{Key: key}
	if err := db.WithContext(ctx).
		Where(&models.SystemSetting{Key: key}).
		Assign(map[string]any{"value": value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("system settings: upsert %q: %w", key, err)
	}

	return nil
}

// EnsureVaultEncryptionKey returns the stored vault key, persisting the output of
// generate on first use. The key never changes once stored, otherwise existing
// ciphertexts would become unreadable.
func EnsureVaultEncryptionKey(ctx context.Context, db *gorm.DB, generate func() (string, error)) (string, error) {
	current, err := GetSystemSetting(ctx, db, VaultEncryptionKeySetting)
	if err != nil {
		return "", err
	}
	if current = strings.TrimSpace(current); current != "" {
		return current, nil
	}

	key, err := generate()
	if err != nil {
		return "", fmt.Errorf("system settings: generate vault key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("system settings: vault key is empty")
	}

	record := models.SystemSetting{Key: VaultEncryptionKeySetting, Value: key}
	if err := db.WithContext(ctx).
		Where(&models.SystemSetting{Key: VaultEncryptionKeySetting}).
		Attrs(models.SystemSetting{Value: key}).
		FirstOrCreate(&record).Error; err != nil {
		return "", fmt.Errorf("system settings: store vault key: %w", err)
	}

	return record.Value, nil
}
