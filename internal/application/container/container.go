// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/caseboardhq/caseboard-go/internal/application/services"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/coordinator"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/manager"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/messaging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/persistence/database"
	recordstore "github.com/caseboardhq/caseboard-go/internal/infrastructure/persistence/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/realtime"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	RecordService *services.RecordService
	SyncService   *services.SyncService
	AuthService   *services.AuthService

	// Infrastructure
	Logger         *logging.ChanneledLogger
	DB             *database.DB
	CacheManager   *manager.Manager
	Coordinator    *coordinator.Coordinator
	Subscriber     *realtime.Subscriber
	Supervisor     *realtime.Supervisor
	Broadcaster    *messaging.SSEBroadcaster
	OpsBroadcaster *messaging.OpsBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer() (*Container, error) {
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect record store: %w", err)
	}
	if err := recordstore.EnsureSchema(db, logger); err != nil {
		return nil, err
	}

	cacheManager := manager.NewManager(logger)
	coord := coordinator.New(cacheManager, coordinator.NewConfig(), logger)

	authService := services.NewAuthService(logger)

	transport := realtime.NewWSTransport(logger)
	subscriber := realtime.NewSubscriber(transport, realtime.NewSubscriberConfig(),
		func() (string, error) { return authService.RealtimeToken("portal") }, logger)
	supervisor := realtime.NewSupervisor(subscriber, realtime.NewSupervisorConfig(), logger)

	broadcaster := messaging.NewSSEBroadcaster(logger)

	recordRepo := recordstore.NewRecordRepository(db, cacheManager, logger)
	recordService := services.NewRecordService(recordRepo, logger)
	syncService := services.NewSyncService(recordService, cacheManager, coord, subscriber, supervisor, broadcaster, logger)

	opsBroadcaster := messaging.NewOpsBroadcaster(cacheManager, coord, subscriber, supervisor, broadcaster)

	return &Container{
		RecordService:  recordService,
		SyncService:    syncService,
		AuthService:    authService,
		Logger:         logger,
		DB:             db,
		CacheManager:   cacheManager,
		Coordinator:    coord,
		Subscriber:     subscriber,
		Supervisor:     supervisor,
		Broadcaster:    broadcaster,
		OpsBroadcaster: opsBroadcaster,
	}, nil
}
