package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbodonnell/tether/pkg/api"
	authproviders "github.com/cbodonnell/tether/pkg/auth/providers"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/network"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/cbodonnell/tether/pkg/version"
	"github.com/joho/godotenv"
)

func main() {
	relayPort := flag.Int("relay-port", 8888, "WebSocket relay port to listen on")
	apiPort := flag.Int("api-port", 9090, "API port to listen on")
	allowOrigin := flag.String("allow-origin", "*", "Allowed origin for API requests")
	envFile := flag.String("env-file", ".env", "Optional file of environment variables")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No environment file loaded from %s: %v", *envFile, err)
	}

	log.Info("Starting tether server version %s", version.Get())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	authProvider, err := newAuthProvider(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to create auth provider: %v", err))
	}

	connStr := os.Getenv("TETHER_DATABASE_URL")
	if connStr == "" {
		connStr = "sqlite://tether.db"
	}
	repository, err := repositories.Open(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	var tls *network.TLSConfig
	tlsCertFile := os.Getenv("TETHER_TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("TETHER_TLS_KEY_FILE")
	if tlsCertFile != "" && tlsKeyFile != "" {
		tls = &network.TLSConfig{
			CertFile: tlsCertFile,
			KeyFile:  tlsKeyFile,
		}
	}

	apiServerOpts := api.NewAPIServerOptions{
		Port:         *apiPort,
		AllowOrigin:  *allowOrigin,
		AuthProvider: authProvider,
		Repository:   repository,
	}
	if tls != nil {
		apiServerOpts.TLS = &api.TLSConfig{
			CertFile: tls.CertFile,
			KeyFile:  tls.KeyFile,
		}
	}
	apiServer := api.NewAPIServer(apiServerOpts)
	go apiServer.Start()

	relay := network.NewRelayServer(network.NewRelayServerOptions{
		AuthProvider: authProvider,
		Repository:   repository,
		Port:         *relayPort,
		TLS:          tls,
	})
	go relay.Start(ctx)

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}

// newAuthProvider verifies Firebase ID tokens when a project is configured
// and falls back to a static token table otherwise.
func newAuthProvider(ctx context.Context) (authproviders.AuthProvider, error) {
	if projectID := os.Getenv("TETHER_FIREBASE_PROJECT_ID"); projectID != "" {
		apiKey := os.Getenv("TETHER_FIREBASE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("TETHER_FIREBASE_API_KEY environment variable must be set")
		}
		log.Info("Verifying Firebase tokens for project %s", projectID)
		return authproviders.NewFirebaseAuthProvider(ctx, projectID, apiKey)
	}

	tokens := authproviders.ParseStaticTokens(os.Getenv("TETHER_STATIC_TOKENS"))
	open := strings.EqualFold(os.Getenv("TETHER_OPEN_AUTH"), "true")
	if len(tokens) == 0 && !open {
		return nil, fmt.Errorf("either TETHER_FIREBASE_PROJECT_ID, TETHER_STATIC_TOKENS or TETHER_OPEN_AUTH must be set")
	}
	log.Warn("Using static auth with %d tokens (open: %t)", len(tokens), open)
	return authproviders.NewStaticAuthProvider(&authproviders.NewStaticAuthProviderOptions{
		Tokens: tokens,
		Open:   open,
	}), nil
}
