package providers

import (
	"github.com/samber/do/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
	"github.com/bloomeryapp/bloomery-admin/internal/config"
	"github.com/bloomeryapp/bloomery-admin/internal/logger"
)

// AuthKey is the PASETO symmetric key as a hex string.
type AuthKey string

// ProvideAuthKey loads or generates the token key. A key set in the
// config wins over the persisted one.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.TokenKey != "" {
		return AuthKey(cfg.Auth.TokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}
	cfg.Auth.TokenKey = key

	log.Info("Authentication key loaded", "token_duration", cfg.Auth.TokenDuration)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(key), cfg.Auth.TokenDuration)
}
