package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "mapleads"
	keyringAccount = "places-api-key"

	EnvAPIKey = "MAPLEADS_PLACES_API_KEY"
)

// GetPlacesAPIKey resolves the Places API key: environment first (covers CI
// and .env files), OS keychain second.
func GetPlacesAPIKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(EnvAPIKey)); k != "" {
		return k, nil
	}

	k, err := keyring.Get(KeyringService, keyringAccount)
	if err == nil && strings.TrimSpace(k) != "" {
		return strings.TrimSpace(k), nil
	}

	return "", errors.New("places API key not found (set " + EnvAPIKey + " or store it in the keychain)")
}

func SetPlacesAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeletePlacesAPIKey() error {
	return keyring.Delete(KeyringService, keyringAccount)
}
