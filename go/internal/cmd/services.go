package main

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/quizbuzz/go/clients"
	"github.com/mcdev12/quizbuzz/go/internal/analytics"
	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/mcdev12/quizbuzz/go/internal/game/rooms"
	"github.com/mcdev12/quizbuzz/go/internal/gateway"
	"github.com/mcdev12/quizbuzz/go/internal/questions"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Rooms       *rooms.Manager
	Connections *gateway.ConnectionManager
	Gateway     *gateway.Handler
	Analytics   *analytics.App
}

func setupServices(pool *pgxpool.Pool, rules game.Rules) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → engine layer

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	// Question sets come from the remote task store when one is configured,
	// otherwise from our own question tables.
	var source rooms.QuestionSource
	if url := os.Getenv("TASK_API_URL"); url != "" {
		source = clients.NewTaskStoreClient(url, os.Getenv("TASK_API_KEY"))
		log.Info().Str("url", url).Msg("loading question sets from task store")
	} else {
		questionsRepo := questions.NewRepository(pool)
		source = questions.NewApp(questionsRepo)
		log.Info().Msg("loading question sets from database")
	}

	// Outcome analytics
	outboxRepo := analytics.NewRepository(pool)
	analyticsApp := analytics.NewApp(outboxRepo)

	manager := rooms.NewManager(rules, clockwork.NewRealClock(), cm, analyticsApp, source)
	cm.SetRooms(manager)

	handler := gateway.NewHandler(manager, cm)

	return &Services{
		Rooms:       manager,
		Connections: cm,
		Gateway:     handler,
		Analytics:   analyticsApp,
	}
}

// setupRelay wires the outbox relay to JetStream when NATS_URL is set.
// Returns nil when analytics publishing is not configured.
func setupRelay(services *Services, databaseURL string) (*analytics.Relay, *analytics.JetStreamPublisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		log.Info().Msg("NATS_URL not set, outcome publishing disabled")
		return nil, nil, nil
	}

	pubCfg := analytics.DefaultJetStreamPublisherConfig()
	pubCfg.URL = natsURL
	publisher, err := analytics.NewJetStreamPublisher(pubCfg)
	if err != nil {
		return nil, nil, err
	}

	relayCfg := analytics.DefaultRelayConfig()
	relayCfg.DatabaseURL = databaseURL
	relayCfg.BatchSize = int32(getEnvAsInt("OUTBOX_BATCH_SIZE", int(relayCfg.BatchSize)))
	relay, err := analytics.NewRelay(services.Analytics, publisher, relayCfg)
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}

	return relay, publisher, nil
}
