package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "leadscout"
)

func ProviderAccount(provider string) string {
	return fmt.Sprintf("leadscout:provider:%s", strings.ToLower(strings.TrimSpace(provider)))
}

func GetProviderKey(provider string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", errors.New("provider name is empty")
	}
	key, err := keyring.Get(KeyringService, ProviderAccount(provider))
	if err != nil || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("api key for provider %q not found in keychain", provider)
	}
	return key, nil
}

func SetProviderKey(provider, key string) error {
	if strings.TrimSpace(provider) == "" {
		return errors.New("provider name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, ProviderAccount(provider), key)
}

func DeleteProviderKey(provider string) error {
	if strings.TrimSpace(provider) == "" {
		return errors.New("provider name is empty")
	}
	return keyring.Delete(KeyringService, ProviderAccount(provider))
}
