// Command portal runs the RentDesk companion portal: a server-rendered
// frontend over the RentDesk REST API that authenticates one operator
// profile per process, restores it across restarts, and gates pages by
// role.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/api"
	"github.com/rentdesk/client-go/internal/core/ports"
	"github.com/rentdesk/client-go/internal/core/service"
	"github.com/rentdesk/client-go/internal/infrastructure/config"
	"github.com/rentdesk/client-go/internal/infrastructure/store"
	"github.com/rentdesk/client-go/internal/session"
	"github.com/rentdesk/client-go/internal/transport"
	"github.com/rentdesk/client-go/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		tokenStore ports.TokenStore
		rdb        *redis.Client
	)
	switch cfg.Session.Backend {
	case "redis":
		var err error
		rdb, err = store.Connect(ctx, store.RedisConfig{
			Addr: cfg.Session.Redis.Addr,
			DB:   cfg.Session.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to redis")
		}
		defer rdb.Close()
		tokenStore = store.NewRedis(rdb, cfg.Session.Redis.Key)
	case "file":
		tokenStore = store.NewFile(cfg.Session.FilePath)
	default:
		tokenStore = store.NewMemory()
	}
	log.Info().Str("backend", cfg.Session.Backend).Msg("session store ready")

	bearer := &transport.Bearer{
		Store:      tokenStore,
		RefreshURL: cfg.APIBaseURL + "/auth/refresh",
		Nav:        logNavigator{log: log},
		Log:        log,
	}
	client := &http.Client{Transport: bearer, Timeout: cfg.HTTPTimeout}

	auth := service.NewAuth(tokenStore, client, cfg.APIBaseURL, log)
	sess := session.NewManager(auth, tokenStore, log)
	sess.Init(ctx)
	defer sess.Teardown()

	e := api.NewRouter(sess, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("portal server")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("api", cfg.APIBaseURL).Msg("portal started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("portal shutdown")
	}
}

// logNavigator satisfies ports.Navigator for the server-rendered
// portal. The store is already empty when it fires, so the route guard
// performs the real redirect on the next request; the navigator just
// records the transition.
type logNavigator struct {
	log zerolog.Logger
}

func (n logNavigator) ToLogin() {
	n.log.Warn().Msg("session expired, sending user to login")
}

func (n logNavigator) ToUnauthorized() {
	n.log.Warn().Msg("sending user to unauthorized page")
}
