package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/querypad/querypad/config"
	"github.com/querypad/querypad/console"
	"github.com/querypad/querypad/queryer"
	"github.com/querypad/querypad/schema"
	"github.com/querypad/querypad/secrets"
	"github.com/querypad/querypad/storage"
)

var (
	flagEndpoint   string
	flagHeaders    []string
	flagSchemaFile string
	flagVerbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "querypad",
		Short: "Interactive GraphQL query console",
		Long: `querypad is a schema-aware console for a GraphQL endpoint: edit a
query with lint markers and completions, execute it with ctrl+enter and read
the pretty-printed result next to it. The query text survives restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConsole,
	}

	root.Flags().StringVar(&flagEndpoint, "endpoint", "", "GraphQL endpoint URL (overrides config)")
	root.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "extra request header, key:value (repeatable)")
	root.Flags().StringVar(&flagSchemaFile, "schema-file", "", "load the schema from a local SDL file instead of introspecting")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(authCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "querypad:", err)
		os.Exit(1)
	}
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(&cfg)

	if cfg.Endpoint.URL == "" {
		return errors.New("no endpoint configured, pass --endpoint or set endpoint.url")
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	token := resolveToken(cfg, logger)

	q := queryer.NewHTTPQueryer(cfg.Transport(token))

	var loader schema.Loader
	if cfg.Schema.File != "" {
		loader = schema.FileLoader(cfg.Schema.File)
	} else {
		loader = schema.EndpointLoader(q)
	}
	provider := schema.NewProvider(loader)

	store, err := storage.NewQueryStore(config.AppName)
	if err != nil {
		return fmt.Errorf("open query store: %w", err)
	}

	logger.Info("starting console",
		zap.String("endpoint", cfg.Endpoint.URL),
		zap.Bool("schema_from_file", cfg.Schema.File != ""),
	)

	program := tea.NewProgram(console.New(q, provider, store, logger), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func applyFlags(cfg *config.Config) {
	if flagEndpoint != "" {
		cfg.Endpoint.URL = flagEndpoint
	}
	if flagSchemaFile != "" {
		cfg.Schema.File = flagSchemaFile
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}
	for _, h := range flagHeaders {
		k, v, ok := strings.Cut(h, ":")
		if !ok || k == "" {
			continue
		}
		if cfg.Endpoint.Headers == nil {
			cfg.Endpoint.Headers = map[string]string{}
		}
		cfg.Endpoint.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
}

// resolveToken prefers the configured env var, then the OS keyring. An empty
// result means unauthenticated requests, which is fine for open endpoints.
func resolveToken(cfg config.Config, logger *zap.Logger) string {
	if cfg.Endpoint.TokenEnv != "" {
		if token := os.Getenv(cfg.Endpoint.TokenEnv); token != "" {
			return token
		}
	}

	store, err := secrets.Open()
	if err != nil {
		logger.Warn("open keyring", zap.Error(err))
		return ""
	}
	token, err := store.Token()
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			logger.Warn("read token", zap.Error(err))
		}
		return ""
	}
	return token
}

// buildLogger writes JSON logs to the configured file. The TUI owns stdout
// and stderr, so nothing may log there while the program runs.
func buildLogger(lc config.LogConfig) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(lc.File), 0o700); err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if err := level.Set(lc.Level); err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{lc.File}
	zc.ErrorOutputPaths = []string{lc.File}
	return zc.Build()
}

func authCmd() *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored endpoint token",
	}

	auth.AddCommand(&cobra.Command{
		Use:   "set-token <token>",
		Short: "Store the endpoint bearer token in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := secrets.Open()
			if err != nil {
				return err
			}
			if err := store.SetToken(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token stored")
			return nil
		},
	})

	auth.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored endpoint token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := secrets.Open()
			if err != nil {
				return err
			}
			if err := store.DeleteToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return nil
		},
	})

	return auth
}
