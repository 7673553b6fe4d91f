package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"tush00nka/bbbab_conversations/internal/config"
	"tush00nka/bbbab_conversations/internal/handler"
	"tush00nka/bbbab_conversations/internal/pkg/auth"
	"tush00nka/bbbab_conversations/internal/pkg/events"
	"tush00nka/bbbab_conversations/internal/pkg/logger"
	"tush00nka/bbbab_conversations/internal/pkg/metrics"
	"tush00nka/bbbab_conversations/internal/repository"
	"tush00nka/bbbab_conversations/internal/service"
	"tush00nka/bbbab_conversations/internal/ws"
)

// Run wires every dependency from cfg and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, storagePing, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var cache repository.MessageCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		cache = repository.NewMessageCache(rdb, cfg.MessageCacheTTL)
		log.WithField("addr", cfg.RedisAddr).Info("message cache enabled")
	}

	hub := ws.NewHub(log)
	defer hub.Close()

	publisher := events.Fanout{hub}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nats.Close()
		publisher = append(publisher, nats)
		log.WithField("url", cfg.NATSURL).Info("event publishing enabled")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTKey, cfg.JWTTokenTTL)
	if err != nil {
		return err
	}

	m := metrics.New()

	userService := service.NewUserService(store, publisher, log)
	conversationService := service.NewConversationService(store, service.NewAccessGate(store), cache, publisher, log)
	messageService := service.NewMessageService(store, cache, publisher, log)

	handlers := Handlers{
		User:         handler.NewUserHandler(userService, conversationService, log),
		Conversation: handler.NewConversationHandler(conversationService, messageService, m, log),
		Stream:       handler.NewStreamHandler(hub, ws.NewUpgrader(cfg.Origins()), conversationService, m, log),
	}
	if cfg.AttachmentsEnabled() {
		s3Service, err := service.NewS3Service(cfg, messageService, log)
		if err != nil {
			return err
		}
		handlers.Attachment = handler.NewAttachmentHandler(s3Service, conversationService, messageService, m, log)
	}

	server := NewServer(handlers, tokens, m, storagePing, cfg.Origins(), log)
	return server.Run(ctx, cfg.ServerPort)
}

// openStore returns the configured Store, a liveness check for /ping and a
// function releasing the connection pool.
func openStore(cfg *config.Config, log logrus.FieldLogger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.StorageDriver == repository.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}, nil
	}

	db, err := repository.NewDB(cfg.StorageDriver, cfg.DSN(), gormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}
	return repository.NewStore(db), sqlDB.PingContext, closeDB, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "trace":
		return gormlogger.Info
	case "error", "fatal", "panic":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
