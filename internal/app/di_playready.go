package app

import (
	"errors"
	"fmt"
	"sync"

	playreadyEngine "github.com/allisson/playready-proxy/internal/playready/engine"
	playreadyHTTP "github.com/allisson/playready-proxy/internal/playready/http"
	playreadyRepository "github.com/allisson/playready-proxy/internal/playready/repository"
	playreadyService "github.com/allisson/playready-proxy/internal/playready/service"
	playreadyUseCase "github.com/allisson/playready-proxy/internal/playready/usecase"
)

// ErrEngineURLRequired is returned when the server is assembled without a CDM engine.
var ErrEngineURLRequired = errors.New("CDM_ENGINE_URL is required")

type playreadyComponents struct {
	catalogue      *playreadyRepository.DeviceCatalogue
	engine         playreadyUseCase.Engine
	resolver       playreadyService.HeaderResolver
	registry       playreadyUseCase.SessionRegistry
	sessionUseCase playreadyUseCase.SessionUseCase
	licenseUseCase playreadyUseCase.LicenseUseCase
	handler        *playreadyHTTP.Handler

	catalogueInit      sync.Once
	engineInit         sync.Once
	resolverInit       sync.Once
	registryInit       sync.Once
	sessionUseCaseInit sync.Once
	licenseUseCaseInit sync.Once
	handlerInit        sync.Once
}

// DeviceCatalogue returns the devices configured at startup.
func (c *Container) DeviceCatalogue() (*playreadyRepository.DeviceCatalogue, error) {
	c.playready.catalogueInit.Do(func() {
		var err error
		c.playready.catalogue, err = playreadyRepository.LoadDeviceCatalogue(
			c.config.CDMDevicesFile,
			c.config.CDMDeviceName,
			c.config.CDMDeviceFile,
		)
		if err != nil {
			err = fmt.Errorf("failed to load device catalogue: %w", err)
		}
		c.setInitError("deviceCatalogue", err)
	})
	if err := c.initError("deviceCatalogue"); err != nil {
		return nil, err
	}
	return c.playready.catalogue, nil
}

// Engine returns the remote CDM engine client.
func (c *Container) Engine() (playreadyUseCase.Engine, error) {
	c.playready.engineInit.Do(func() {
		var err error
		c.playready.engine, err = c.initEngine()
		c.setInitError("engine", err)
	})
	if err := c.initError("engine"); err != nil {
		return nil, err
	}
	return c.playready.engine, nil
}

// HeaderResolver returns the PSSH to WRM header resolver.
func (c *Container) HeaderResolver() playreadyService.HeaderResolver {
	c.playready.resolverInit.Do(func() {
		c.playready.resolver = playreadyService.NewHeaderResolver(c.Logger())
	})
	return c.playready.resolver
}

// SessionRegistry returns the table of live CDM sessions.
func (c *Container) SessionRegistry() (playreadyUseCase.SessionRegistry, error) {
	c.playready.registryInit.Do(func() {
		var err error
		c.playready.registry, err = c.initSessionRegistry()
		c.setInitError("sessionRegistry", err)
	})
	if err := c.initError("sessionRegistry"); err != nil {
		return nil, err
	}
	return c.playready.registry, nil
}

// SessionUseCase returns the session registry decorated with metrics.
func (c *Container) SessionUseCase() (playreadyUseCase.SessionUseCase, error) {
	c.playready.sessionUseCaseInit.Do(func() {
		var err error
		c.playready.sessionUseCase, err = c.initSessionUseCase()
		c.setInitError("sessionUseCase", err)
	})
	if err := c.initError("sessionUseCase"); err != nil {
		return nil, err
	}
	return c.playready.sessionUseCase, nil
}

// LicenseUseCase returns the license workflow decorated with metrics.
func (c *Container) LicenseUseCase() (playreadyUseCase.LicenseUseCase, error) {
	c.playready.licenseUseCaseInit.Do(func() {
		var err error
		c.playready.licenseUseCase, err = c.initLicenseUseCase()
		c.setInitError("licenseUseCase", err)
	})
	if err := c.initError("licenseUseCase"); err != nil {
		return nil, err
	}
	return c.playready.licenseUseCase, nil
}

// PlayReadyHandler returns the HTTP handler of the license workflow.
func (c *Container) PlayReadyHandler() (*playreadyHTTP.Handler, error) {
	c.playready.handlerInit.Do(func() {
		var err error
		c.playready.handler, err = c.initPlayReadyHandler()
		c.setInitError("playreadyHandler", err)
	})
	if err := c.initError("playreadyHandler"); err != nil {
		return nil, err
	}
	return c.playready.handler, nil
}

func (c *Container) initEngine() (playreadyUseCase.Engine, error) {
	if c.config.CDMEngineURL == "" {
		return nil, ErrEngineURLRequired
	}
	engine, err := playreadyEngine.NewRemoteEngine(
		c.config.CDMEngineURL,
		c.config.CDMEngineSecret,
		c.config.CDMEngineTimeout,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cdm engine: %w", err)
	}
	return engine, nil
}

func (c *Container) initSessionRegistry() (playreadyUseCase.SessionRegistry, error) {
	catalogue, err := c.DeviceCatalogue()
	if err != nil {
		return nil, err
	}
	engine, err := c.Engine()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return playreadyUseCase.NewSessionRegistry(catalogue, engine, bm, c.Logger()), nil
}

func (c *Container) initSessionUseCase() (playreadyUseCase.SessionUseCase, error) {
	registry, err := c.SessionRegistry()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return playreadyUseCase.NewSessionUseCaseWithMetrics(registry, bm), nil
}

func (c *Container) initLicenseUseCase() (playreadyUseCase.LicenseUseCase, error) {
	registry, err := c.SessionRegistry()
	if err != nil {
		return nil, err
	}
	engine, err := c.Engine()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	useCase := playreadyUseCase.NewLicenseUseCase(registry, engine, c.HeaderResolver(), c.Logger())
	return playreadyUseCase.NewLicenseUseCaseWithMetrics(useCase, bm), nil
}

func (c *Container) initPlayReadyHandler() (*playreadyHTTP.Handler, error) {
	catalogue, err := c.DeviceCatalogue()
	if err != nil {
		return nil, err
	}
	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, err
	}
	licenses, err := c.LicenseUseCase()
	if err != nil {
		return nil, err
	}
	return playreadyHTTP.NewHandler(catalogue, sessions, licenses, c.Logger()), nil
}
