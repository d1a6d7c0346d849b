package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FreePeak/mcp-dev-server/internal/config"
	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/mcp"
	"github.com/FreePeak/mcp-dev-server/internal/metrics"
	"github.com/FreePeak/mcp-dev-server/internal/resource"
	"github.com/FreePeak/mcp-dev-server/internal/server"
	"github.com/FreePeak/mcp-dev-server/internal/session"
	"github.com/FreePeak/mcp-dev-server/internal/tools"
	"github.com/FreePeak/mcp-dev-server/internal/transport"
	"github.com/FreePeak/mcp-dev-server/pkg/cache"
	"github.com/FreePeak/mcp-dev-server/pkg/db"
	"github.com/FreePeak/mcp-dev-server/pkg/fsstore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	transportMode string
	serverPort    int
	healthPort    int
	dataDir       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mcp-dev-server",
		Short:        "MCP server exposing files, a SQL database and a cache to AI clients",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	rootCmd.Flags().StringVarP(&transportMode, "transport", "t", "", "transport mode (stdio or sse)")
	rootCmd.Flags().IntVar(&serverPort, "port", 0, "SSE server port")
	rootCmd.Flags().IntVar(&healthPort, "health-port", 0, "health and metrics port")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "root directory for file tools and resources")

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

// applyFlags lets explicitly set flags override the environment
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.TransportMode = transportMode
	}
	if cmd.Flags().Changed("port") {
		cfg.ServerPort = serverPort
	}
	if cmd.Flags().Changed("health-port") {
		cfg.HealthPort = healthPort
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.Initialize(cfg.LogLevel)
	logger.Info("Starting mcp-dev-server %s with %s transport", version, cfg.TransportMode)

	conns := connect(ctx, cfg)
	defer conns.close()

	m := metrics.New()
	resolver := resource.NewResolver(conns.files, conns.database, m)
	dispatcher := tools.NewDispatcher(tools.Connectors{
		DB:    conns.database,
		Cache: conns.cache,
		Files: conns.files,
	}, m)
	handler := mcp.NewHandler(version, resolver, dispatcher)
	logger.Info("Registered tools: %v", dispatcher.Names())

	sessions := session.NewManager()
	defer sessions.CloseAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	health := server.New(fmt.Sprintf(":%d", cfg.HealthPort), mcp.ServerName, map[string]server.Pinger{
		"database": conns.database,
		"cache":    conns.cache,
	}, m.Handler())
	g.Go(func() error { return health.Run(ctx) })

	switch cfg.TransportMode {
	case "sse":
		sse := transport.NewSSETransport(sessions, handler, "")
		api := server.New(fmt.Sprintf(":%d", cfg.ServerPort), mcp.ServerName, nil, nil)
		api.Mount("/", sse.Routes())
		g.Go(func() error { return api.Run(ctx) })
		g.Go(func() error {
			cleanupSessions(ctx, sessions)
			return nil
		})
	default:
		stdio := transport.NewStdioTransport(sessions, handler, os.Stdin, os.Stdout)
		g.Go(func() error {
			defer cancel()
			return stdio.Run(ctx)
		})
	}

	err := g.Wait()
	logger.Info("Server stopped")
	return err
}

func cleanupSessions(ctx context.Context, sessions *session.Manager) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupSessions(30 * time.Minute); n > 0 {
				logger.Info("Removed %d idle sessions", n)
			}
		}
	}
}

type connectors struct {
	database db.Database
	cache    cache.Cache
	files    *fsstore.Store
}

// connect opens every backing store. Any failure is fatal.
func connect(ctx context.Context, cfg *config.Config) *connectors {
	files, err := fsstore.New(cfg.DataDir)
	if err != nil {
		logger.Fatal("Failed to prepare data directory %s: %v", cfg.DataDir, err)
	}

	database, err := db.NewDatabase(db.Config{
		URL:          cfg.DBConfig.URL,
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("Invalid database configuration: %v", err)
	}
	if err := database.Connect(); err != nil {
		logger.Fatal("Failed to connect to database %s: %v", database.ConnectionString(), err)
	}

	c, err := cache.New(ctx, cache.Config{
		Backend: cfg.CacheConfig.Backend,
		URL:     cfg.CacheConfig.URL,
	})
	if err != nil {
		_ = database.Close()
		logger.Fatal("Failed to connect to %s cache: %v", cfg.CacheConfig.Backend, err)
	}
	logger.Info("Connected to %s cache", c.Backend())

	return &connectors{database: database, cache: c, files: files}
}

func (c *connectors) close() {
	if err := c.cache.Close(); err != nil {
		logger.Warn("Error closing cache: %v", err)
	}
	if err := c.database.Close(); err != nil {
		logger.Warn("Error closing database: %v", err)
	}
}
