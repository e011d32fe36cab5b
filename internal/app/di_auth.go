package app

import (
	"fmt"
	"log/slog"
	"sync"

	authRepository "github.com/allisson/playready-proxy/internal/auth/repository"
	authService "github.com/allisson/playready-proxy/internal/auth/service"
	authUseCase "github.com/allisson/playready-proxy/internal/auth/usecase"
)

type authComponents struct {
	fileRepo      *authRepository.FileAPIKeyRepository
	apiKeyRepo    authUseCase.APIKeyRepository
	keyService    authService.KeyService
	apiKeyUseCase authUseCase.APIKeyUseCase

	apiKeyRepoInit    sync.Once
	keyServiceInit    sync.Once
	apiKeyUseCaseInit sync.Once
	watcherInit       sync.Once
}

// APIKeyRepository returns the API key store selected by APIKEY_STORE_DRIVER.
func (c *Container) APIKeyRepository() (authUseCase.APIKeyRepository, error) {
	c.auth.apiKeyRepoInit.Do(func() {
		var err error
		c.auth.apiKeyRepo, err = c.initAPIKeyRepository()
		c.setInitError("apiKeyRepository", err)
	})
	if err := c.initError("apiKeyRepository"); err != nil {
		return nil, err
	}
	return c.auth.apiKeyRepo, nil
}

// KeyService returns the API key generator.
func (c *Container) KeyService() authService.KeyService {
	c.auth.keyServiceInit.Do(func() {
		c.auth.keyService = authService.NewKeyService()
	})
	return c.auth.keyService
}

// APIKeyUseCase returns the API key use case, decorated with metrics.
func (c *Container) APIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	c.auth.apiKeyUseCaseInit.Do(func() {
		var err error
		c.auth.apiKeyUseCase, err = c.initAPIKeyUseCase()
		c.setInitError("apiKeyUseCase", err)
	})
	if err := c.initError("apiKeyUseCase"); err != nil {
		return nil, err
	}
	return c.auth.apiKeyUseCase, nil
}

// StartAPIKeyWatcher reloads the file store whenever the key file changes, until
// Shutdown. It does nothing for SQL stores or when watching is disabled.
func (c *Container) StartAPIKeyWatcher() error {
	if c.config.UsesSQLStore() || !c.config.APIKeyFileWatch {
		return nil
	}
	if _, err := c.APIKeyRepository(); err != nil {
		return err
	}
	c.auth.watcherInit.Do(func() {
		logger := c.Logger()
		repo := c.auth.fileRepo
		go func() {
			if err := repo.Watch(c.bgCtx); err != nil {
				logger.Error("api key file watcher stopped",
					slog.String("path", repo.Path()),
					slog.Any("error", err))
			}
		}()
	})
	return nil
}

func (c *Container) initAPIKeyRepository() (authUseCase.APIKeyRepository, error) {
	switch c.config.APIKeyStoreDriver {
	case "file":
		repo, err := authRepository.NewFileAPIKeyRepository(c.config.APIKeyFile, c.Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to load api key file: %w", err)
		}
		c.auth.fileRepo = repo
		return repo, nil
	case "postgres":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
		}
		return authRepository.NewPostgreSQLAPIKeyRepository(db), nil
	case "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
		}
		return authRepository.NewMySQLAPIKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported api key store driver: %s", c.config.APIKeyStoreDriver)
	}
}

func (c *Container) initAPIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}
	repo, err := c.APIKeyRepository()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := authUseCase.NewAPIKeyUseCase(txManager, repo, c.KeyService())
	return authUseCase.NewAPIKeyUseCaseWithMetrics(useCase, bm), nil
}
