package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Arionyxx/cinesync/internal/controller"
	connInmemory "github.com/Arionyxx/cinesync/internal/repository/connection/inmemory"
	roomInmemory "github.com/Arionyxx/cinesync/internal/repository/room/inmemory"
	roomRedis "github.com/Arionyxx/cinesync/internal/repository/room/redis"
	"github.com/Arionyxx/cinesync/internal/service/room"
	"github.com/Arionyxx/cinesync/pkg/ctxlogger"
	"github.com/Arionyxx/cinesync/pkg/redisclient"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type AppConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	Storage            string        `json:"storage"`
	MembersLimit       int           `json:"members_limit"`
	MaxMessages        int           `json:"max_messages"`
	TrimMessagesTo     int           `json:"trim_messages_to"`
	ParticipantTimeout time.Duration `json:"participant_timeout"`
	ReapInterval       time.Duration `json:"reap_interval"`
	RedisPort          int           `json:"redis_port"`
	RedisHost          string        `json:"redis_host"`
	RedisPassword      string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.MaxMessages < 1 || cfg.TrimMessagesTo < 1 {
		return fmt.Errorf("message limits must be greater than 0")
	}
	if cfg.TrimMessagesTo > cfg.MaxMessages {
		return fmt.Errorf("trim messages to must not exceed max messages")
	}
	if cfg.Storage != StorageMemory && cfg.Storage != StorageRedis {
		return fmt.Errorf("storage must be %q or %q", StorageMemory, StorageRedis)
	}
	if cfg.ParticipantTimeout <= 0 || cfg.ReapInterval <= 0 {
		return fmt.Errorf("participant timeout and reap interval must be positive")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	var roomRepo room.RoomRepo
	switch cfg.Storage {
	case StorageRedis:
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		roomRepo = roomRedis.NewRepo(rc, logger, 24*time.Hour, cfg.MaxMessages, cfg.TrimMessagesTo)
	default:
		roomRepo = roomInmemory.NewRepo(logger, cfg.MaxMessages, cfg.TrimMessagesTo)
	}

	connectionRepo := connInmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, connectionRepo, logger, &room.Config{
		MembersLimit: cfg.MembersLimit,
	})
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	go roomService.StartReaper(serverCtx, cfg.ReapInterval, cfg.ParticipantTimeout)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
