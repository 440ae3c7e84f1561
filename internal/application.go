package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/msgapps-backend/internal/app"
	"github.com/rocketscienceinc/msgapps-backend/internal/config"
	"github.com/rocketscienceinc/msgapps-backend/internal/dispatcher"
	"github.com/rocketscienceinc/msgapps-backend/internal/repository"
	"github.com/rocketscienceinc/msgapps-backend/internal/repository/storage"
	"github.com/rocketscienceinc/msgapps-backend/internal/tictactoe"
	"github.com/rocketscienceinc/msgapps-backend/transport/rest"
	"github.com/rocketscienceinc/msgapps-backend/transport/tcp"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var access app.AccessList
	if redisAddr := conf.Redis.GetRedisAddr(); redisAddr != "" {
		redisStorage, err := storage.New(ctx, redisAddr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		access = repository.NewUserRepository(redisStorage.Connection)
	} else {
		log.Info("redis is not configured, user access control is disabled")
	}

	tcpServer := tcp.New(logger)

	router := dispatcher.New(logger, tcpServer, access)
	router.Register(app.NewEchoServer())
	router.Register(tictactoe.NewServer(logger))
	router.Register(app.NewAdminServer(logger, router, access, conf.Admins))
	defer router.Shutdown()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		if tcpErr := tcpServer.Start(ctx, conf.TCPPort, router); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
