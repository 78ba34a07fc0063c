package container

import (
	"github.com/jonboulle/clockwork"

	"github.com/beehive/membership/cmd/engine/repository"
	"github.com/beehive/membership/cmd/engine/service"
	"github.com/beehive/membership/common/bootstrap"
	"github.com/beehive/membership/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components  *bootstrap.Components
	Store       *repository.Store
	RateLimiter *ratelimit.RateLimiter

	LevelService      *service.LevelService
	ActivationService *service.ActivationService
	LifecycleService  *service.LifecycleService
	QueryService      *service.QueryService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	store := repository.NewStore(components.DB)
	clock := clockwork.NewRealClock()

	var notifier service.Notifier = service.NopNotifier{}
	var rateLimiter *ratelimit.RateLimiter
	if components.Redis != nil {
		notifier = service.NewStreamNotifier(components.Redis, cfg.Rewards.EventStream, components.Logger)
		rateLimiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), components.Logger)
	}

	levelService := service.NewLevelService(store, components.Logger)
	activationService := service.NewActivationService(&service.ActivationServiceOpts{
		Store:         store,
		LevelService:  levelService,
		Notifier:      notifier,
		Clock:         clock,
		Logger:        components.Logger,
		PendingWindow: cfg.Rewards.PendingWindow,
	})
	lifecycleService := service.NewLifecycleService(&service.LifecycleServiceOpts{
		Store:          store,
		Notifier:       notifier,
		Clock:          clock,
		Logger:         components.Logger,
		SweepBatchSize: cfg.Sweep.BatchSize,
	})
	queryService := service.NewQueryService(store)

	return &Container{
		Components:        components,
		Store:             store,
		RateLimiter:       rateLimiter,
		LevelService:      levelService,
		ActivationService: activationService,
		LifecycleService:  lifecycleService,
		QueryService:      queryService,
	}, nil
}
