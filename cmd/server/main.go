package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/r0kas/transferful"
	"gopkg.in/yaml.v3"

	"github.com/rs/zerolog"
)

const defaultPort = 4567

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := transferful.DefaultConfig()
	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfgfl, err := os.Open(*cfp)
	if err != nil {
		logger.Warn().Err(err).Msg("config file not readable, using defaults")
	} else {
		if err = yaml.NewDecoder(cfgfl).Decode(&cfg); err != nil {
			logger.Fatal().Err(err).Msg("error decoding config file")
		}
		cfgfl.Close()
	}

	port := cfg.Server.Port
	if arg := flag.Arg(0); arg != "" {
		port = parsePort(arg, logger)
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating snowflake node")
	}

	store := transferful.NewMemStore()
	users := transferful.NewUserService(store, node)

	var accts transferful.AccountService = transferful.NewAccountService(store, node)
	accts = transferful.NewLimitMiddleware(transferful.NewServiceLimits(cfg.Limits))(accts)
	accts = transferful.NewCircuitBreakMiddleware(transferful.NewServiceBreaker(cfg.Breaker))(accts)

	hndlr := transferful.NewHTTPHandler(users, accts, &logger)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: hndlr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Int("port", port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("error starting server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down server")
	}
}

// parsePort falls back to the default on anything that is not a usable
// unprivileged port.
func parsePort(arg string, logger zerolog.Logger) int {
	p, err := strconv.Atoi(arg)
	if err != nil {
		logger.Error().Str("port", arg).Msg("invalid server port argument")
		return defaultPort
	}
	if p <= 1024 || p >= 65535 {
		logger.Error().Int("port", p).Msg("provided port number must be between 1024 and 65535")
		return defaultPort
	}
	return p
}
