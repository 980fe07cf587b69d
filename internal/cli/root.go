// Package cli implements the vault command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/config"
	"docvault/internal/download"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository/httpapi"
	"docvault/internal/session"
	"docvault/internal/store"
)

const retryDelay = 200 * time.Millisecond

var (
	version = "dev"
	commit  = "unknown"
)

// app is the per-invocation state shared by every subcommand. It is built
// in the root command's PersistentPreRunE.
type app struct {
	verbose     bool
	downloadDir string

	cfg      *config.AppConfig
	log      *zap.Logger
	registry *prometheus.Registry
	client   *httpapi.Client
	store    *store.DocumentStore
	shutdown otel.ShutdownFunc
}

// NewRootCommand builds the vault command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vault",
		Short: "Store, organize and retrieve documents",
		Long: `vault talks to a docvault backend.

Quick Start:
  vault register --username ann --email ann@example.com
  vault login --email ann@example.com
  vault upload ./lease.pdf --category Legal
  vault list --search lease
  vault download 1`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging and print request statistics")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newListCommand(a),
		newUploadCommand(a),
		newEditCommand(a),
		newDeleteCommand(a),
		newDownloadCommand(a),
		newCategoriesCommand(),
	)
	return root
}

// Execute runs the vault command and exits non-zero on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Load()
	if a.verbose {
		cfg.Log.Level = "debug"
	} else if os.Getenv("LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}
	if a.downloadDir != "" {
		cfg.Client.DownloadDir = a.downloadDir
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	var sessStore session.CredentialStore = session.NewMemoryStore()
	if cfg.Client.SessionFile != "" {
		sessStore = session.NewFileStore(cfg.Client.SessionFile)
	}
	sess := session.NewManager(session.WithStore(sessStore), session.WithLogger(log))
	errOut := cmd.ErrOrStderr()
	sess.OnExpire(func() {
		fmt.Fprintln(errOut, "Your session has expired. Run `vault login` to sign in again.")
	})

	a.registry = prometheus.NewRegistry()
	opts := []httpapi.Option{
		httpapi.WithHTTPClient(&http.Client{Timeout: cfg.Client.HTTPTimeout}),
		httpapi.WithLogger(log),
		httpapi.WithMetrics(httpapi.NewMetrics(a.registry)),
		httpapi.WithRetry(cfg.Client.RetryAttempts, retryDelay),
	}

	a.shutdown = func(context.Context) error { return nil }
	if cfg.Client.Tracing {
		shutdown, err := otel.Init(cmd.Context(), "docvault-cli", log)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
		opts = append(opts, httpapi.WithTracing())
	}

	client, err := httpapi.New(cfg.Client.APIURL, sess, opts...)
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.client = client
	a.store = store.New(client,
		store.WithLogger(log),
		store.WithSaver(download.Saver{Dir: cfg.Client.DownloadDir, Log: log}),
	)
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.verbose && a.registry != nil {
		a.logRequestStats()
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.log.Warn("tracing shutdown", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

func (a *app) logRequestStats() {
	families, err := a.registry.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		if mf.GetName() != "docvault_client_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			fields := make([]zap.Field, 0, len(m.GetLabel())+1)
			for _, l := range m.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			fields = append(fields, zap.Float64("count", m.GetCounter().GetValue()))
			a.log.Debug("requests", fields...)
		}
	}
}

// userMessage renders err for the terminal. Authentication failures get a
// hint on how to recover.
func userMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.KindAuthenticationRequired {
		return appErr.Error() + " (run `vault login`)"
	}
	return err.Error()
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
