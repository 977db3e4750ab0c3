package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/comoestou/internal/config"
	"github.com/terraincognita07/comoestou/internal/db"
	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/i18n"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/security"
	"github.com/terraincognita07/comoestou/internal/services"
	"gorm.io/gorm"
)

// Runtime is every component built from one configuration. Commands open
// it, use what they need and close it.
type Runtime struct {
	Config   config.Config
	DB       *gorm.DB
	Store    *docstore.GormStore
	Provider *identity.Provider
	Moods    *services.MoodService
	I18n     *i18n.Manager

	closers []func() error
}

type RuntimeOptions struct {
	// Offline commands never sign sessions, so they run without a
	// configured secret key.
	Offline bool
}

func OpenRuntime(cfg config.Config, options RuntimeOptions) (*Runtime, error) {
	secretKey, err := runtimeSecretKey(cfg, options.Offline)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(db.Options{Driver: cfg.DB.Driver, Path: cfg.DB.Path, DSN: cfg.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	runtime := &Runtime{Config: cfg, DB: database}
	runtime.closers = append(runtime.closers, func() error {
		sqlDB, err := database.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	var feed docstore.ChangeFeed = docstore.NewMemoryChangeFeed()
	var revoker identity.TokenRevoker
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		redisFeed, err := docstore.NewRedisChangeFeed(docstore.RedisChangeFeedConfig{Addr: addr, Password: cfg.Redis.Password})
		if err != nil {
			_ = runtime.Close()
			return nil, fmt.Errorf("redis change feed: %w", err)
		}
		redisRevoker := identity.NewRedisTokenRevoker(addr, cfg.Redis.Password)
		feed = redisFeed
		revoker = redisRevoker
		runtime.closers = append(runtime.closers, redisFeed.Close, redisRevoker.Close)
		logger.Info("redis enabled", "addr", addr)
	}

	var federated identity.FederatedVerifier
	if clientID := strings.TrimSpace(cfg.Google.ClientID); clientID != "" {
		verifier, err := identity.NewGoogleVerifier(identity.GoogleVerifierConfig{
			ClientID: clientID,
			JWKSURL:  cfg.Google.JWKSURL,
		})
		if err != nil {
			_ = runtime.Close()
			return nil, fmt.Errorf("google verifier: %w", err)
		}
		federated = verifier
	}

	runtime.Store = docstore.NewGormStore(database, feed)
	runtime.Provider, err = identity.NewProvider(identity.ProviderConfig{
		SecretKey: secretKey,
		Users:     db.NewRepositories(database).Users,
		Profiles:  runtime.Store,
		Revoker:   revoker,
		Federated: federated,
	})
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	runtime.I18n, err = i18n.NewManager(cfg.DefaultLanguage)
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("i18n init failed: %w", err)
	}
	runtime.Moods = services.NewMoodService(runtime.Store, cfg.Location())
	return runtime, nil
}

// Close releases connections in reverse order of opening.
func (runtime *Runtime) Close() error {
	var errs []error
	for index := len(runtime.closers) - 1; index >= 0; index-- {
		if err := runtime.closers[index](); err != nil {
			errs = append(errs, err)
		}
	}
	runtime.closers = nil
	return errors.Join(errs...)
}

func runtimeSecretKey(cfg config.Config, offline bool) ([]byte, error) {
	secretKey, err := config.SecretKey(cfg)
	if err == nil {
		return secretKey, nil
	}
	if !offline {
		return nil, err
	}
	ephemeral, err := security.TemporaryPassword(48)
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return []byte(ephemeral), nil
}
