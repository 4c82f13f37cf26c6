package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgellow/edge-gate/internal/config"
	"github.com/dgellow/edge-gate/internal/credentials"
	"github.com/dgellow/edge-gate/internal/destination"
	"github.com/dgellow/edge-gate/internal/gate"
	"github.com/dgellow/edge-gate/internal/idp"
	"github.com/dgellow/edge-gate/internal/log"
	"github.com/dgellow/edge-gate/internal/server"
	"github.com/dgellow/edge-gate/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// EdgeGate is the complete gate application
type EdgeGate struct {
	config     config.Config
	handler    http.Handler
	httpServer *server.HTTPServer
}

// NewEdgeGate creates the gate application with all dependencies built
func NewEdgeGate(ctx context.Context, cfg config.Config) (*EdgeGate, error) {
	log.LogInfoWithFields("edgegate", "Building gate", map[string]any{
		"addr":        cfg.Gate.Addr,
		"baseURL":     cfg.Gate.BaseURL,
		"upstream":    cfg.Gate.Upstream,
		"credentials": cfg.Credentials.Source,
	})

	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	authorizer, err := idp.NewAuthorizer(cfg.Provider, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}

	sessions, err := session.New(creds.HashKey,
		session.WithCookieName(cfg.Gate.CookieName),
		session.WithTTL(cfg.Gate.SessionTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	routerOpts := []gate.Option{
		gate.WithBaseURL(cfg.Gate.BaseURL),
		gate.WithPaths(gate.Paths{
			Login:    cfg.Gate.Paths.Login,
			Callback: cfg.Gate.Paths.Callback,
			Logout:   cfg.Gate.Paths.Logout,
		}),
		gate.WithMetrics(gate.NewMetrics(registry)),
	}
	if len(cfg.Gate.AllowedDestinations) > 0 {
		routerOpts = append(routerOpts, gate.WithDestinationFilter(
			destination.NewFilter(destination.AllowPrefixes(cfg.Gate.AllowedDestinations...)),
		))
	}
	router := gate.NewRouter(authorizer, sessions, routerOpts...)

	var upstream http.Handler
	if cfg.Gate.Upstream != "" {
		target, err := url.Parse(cfg.Gate.Upstream)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream URL: %w", err)
		}
		upstream = gate.NewUpstreamProxy(target)
	}

	var metricsEndpoint *server.MetricsEndpoint
	if m := cfg.Metrics; m != nil && m.Enabled {
		metricsEndpoint = &server.MetricsEndpoint{
			Path:           m.Path,
			Gatherer:       registry,
			Username:       m.Username,
			HashedPassword: string(m.HashedPassword),
		}
	}

	handler := server.NewRouter(gate.NewHandler(router, upstream), metricsEndpoint)

	return &EdgeGate{
		config:     cfg,
		handler:    handler,
		httpServer: server.NewHTTPServer(handler, cfg.Gate.Addr),
	}, nil
}

// Handler returns the root HTTP handler
func (e *EdgeGate) Handler() http.Handler {
	return e.handler
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM is received, or the server fails
func (e *EdgeGate) Run(ctx context.Context) error {
	log.LogInfoWithFields("edgegate", "Starting gate", map[string]any{
		"addr": e.config.Gate.Addr,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.httpServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.LogInfoWithFields("edgegate", "Starting graceful shutdown", map[string]any{
			"reason":  context.Cause(gctx).Error(),
			"timeout": shutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.httpServer.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.LogErrorWithFields("edgegate", "Gate stopped with error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("edgegate", "Gate stopped", nil)
	return nil
}

func loadCredentials(ctx context.Context, cfg config.Config) (credentials.Credentials, error) {
	switch cfg.Credentials.Source {
	case config.CredentialSourceFirestore:
		source, err := credentials.NewFirestore(ctx, credentials.FirestoreConfig{
			ProjectID:       cfg.Credentials.Project,
			Database:        cfg.Credentials.Database,
			Collection:      cfg.Credentials.Collection,
			Document:        cfg.Credentials.Document,
			CredentialsFile: cfg.Credentials.CredentialsFile,
		})
		if err != nil {
			return credentials.Credentials{}, err
		}
		defer func() {
			if err := source.Close(); err != nil {
				log.LogWarnWithFields("edgegate", "Failed to close Firestore client", map[string]any{
					"error": err.Error(),
				})
			}
		}()
		return source.Load(ctx)

	default:
		return credentials.Static{
			ClientID:     cfg.Provider.ClientID,
			ClientSecret: string(cfg.Provider.ClientSecret),
			HashKey:      string(cfg.Gate.HashKey),
		}.Load(ctx)
	}
}
