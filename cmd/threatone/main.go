package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sloppy/threatone/internal/app"
	"github.com/sloppy/threatone/internal/config"
	"github.com/sloppy/threatone/internal/db"
	"github.com/sloppy/threatone/internal/events"
	"github.com/sloppy/threatone/internal/extract"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/logger"
	"github.com/sloppy/threatone/internal/metrics"
	"github.com/sloppy/threatone/internal/pgstore"
	"github.com/sloppy/threatone/internal/secret"
	"github.com/sloppy/threatone/internal/web"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args[1:])
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	dbPath     string
}

func (g *globals) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath, os.Getenv)
	if err != nil {
		return config.Config{}, err
	}
	if g.dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = g.dbPath
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "threatone",
		Short:         "Threat intelligence dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "threatone.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path, overrides the config")

	root.AddCommand(
		newServeCommand(g),
		newAssetsCommand(g),
		newQuestionsCommand(g),
		newExportCommand(g),
		newExtractCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "threatone %s\n", version)
			},
		},
	)
	return root
}

func openStore(cfg config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return pgstore.Open(cfg.Database.URL)
	default:
		return db.Open(cfg.Database.Path)
	}
}

type dashboardOptions struct {
	offline bool
	events  events.Publisher
	metrics *metrics.Metrics
}

func openDashboard(cfg config.Config, opts dashboardOptions) (*app.Dashboard, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	sealer, ephemeral, err := secret.FromConfig(cfg.SecretKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load secret key: %w", err)
	}
	if ephemeral {
		logger.Warn("No secret_key configured; sealed values will not survive a restart")
	}
	dashboard, err := app.New(app.Options{
		Store:   store,
		Sealer:  sealer,
		Metrics: opts.metrics,
		Events:  opts.events,
		Timings: cfg.Timings,
		Gemini:  cfg.Gemini,
		Offline: opts.offline,
	})
	if err != nil {
		return nil, fmt.Errorf("open dashboard: %w", err)
	}
	return dashboard, nil
}

func newServeCommand(g *globals) *cobra.Command {
	var (
		addr    string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger.Init(cmd.ErrOrStderr(), logger.Options{Format: cfg.Log.Format, Level: cfg.Log.Level})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, offline, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	cmd.Flags().BoolVar(&offline, "offline", false, "disable every intelligence call")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, offline bool, out io.Writer) error {
	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			logger.Warn("Event publishing disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			publisher = nc
		}
	}

	dashboard, err := openDashboard(cfg, dashboardOptions{
		offline: offline,
		events:  publisher,
		metrics: metrics.New(),
	})
	if err != nil {
		publisher.Close()
		return err
	}
	defer dashboard.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(dashboard).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(out, "listening on http://%s\n", cfg.Addr)
		logger.Info("HTTP server started", "addr", cfg.Addr, "database", cfg.Database.Driver, "offline", offline)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// withDashboard opens an offline dashboard for a one-shot command.
func withDashboard(g *globals, fn func(*app.Dashboard) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	dashboard, err := openDashboard(cfg, dashboardOptions{offline: true})
	if err != nil {
		return err
	}
	defer dashboard.Close()
	return fn(dashboard)
}

func newAssetsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "assets", Short: "Manage scope assets"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scope assets",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withDashboard(g, func(d *app.Dashboard) error {
				for _, a := range d.Assets.All() {
					fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%s\t%s\n", a.ID, a.Kind, a.Value, a.Status)
				}
				return nil
			})
		},
	})

	var tags string
	add := &cobra.Command{
		Use:   "add <kind> <value>",
		Short: "Add a scope asset; it is verified the next time the server runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			kind, err := parseAssetKind(args[0])
			if err != nil {
				return err
			}
			return withDashboard(g, func(d *app.Dashboard) error {
				asset, err := d.AddAsset(app.AssetDraft{Kind: kind, Value: args[1], Tags: splitList(tags)})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.OutOrStdout(), "added asset %s\t%s\t%s\n", asset.ID, asset.Kind, asset.Value)
				return nil
			})
		},
	}
	add.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	cmd.AddCommand(add)
	return cmd
}

func parseAssetKind(raw string) (intel.AssetKind, error) {
	for _, k := range intel.AssetKinds {
		if strings.EqualFold(string(k), raw) {
			return k, nil
		}
	}
	names := make([]string, len(intel.AssetKinds))
	for i, k := range intel.AssetKinds {
		names[i] = string(k)
	}
	return "", fmt.Errorf("unknown asset kind %q (want one of %s)", raw, strings.Join(names, ", "))
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newQuestionsCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "questions", Short: "Manage the supplier audit questionnaire"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List audit questions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withDashboard(g, func(d *app.Dashboard) error {
				for _, q := range d.Questions.All() {
					fmt.Fprintf(c.OutOrStdout(), "%d\t%s\t%s\n", q.ID, q.Category, q.Text)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <category> <text>",
		Short: "Add an audit question",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return withDashboard(g, func(d *app.Dashboard) error {
				q, err := d.AddQuestion(strings.Join(args[1:], " "), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(c.OutOrStdout(), "added question %d\t%s\n", q.ID, q.Text)
				return nil
			})
		},
	})
	return cmd
}

func newExportCommand(g *globals) *cobra.Command {
	var (
		format     string
		outputPath string
		scope      app.ExportScope
	)
	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Export a collection, a filtered part of it or one record as CSV, JSON or a text table",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withDashboard(g, func(d *app.Dashboard) error {
				w := c.OutOrStdout()
				if outputPath != "" {
					f, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("create output: %w", err)
					}
					defer f.Close()
					w = f
				}
				if err := d.Export(w, args[0], format, scope); err != nil {
					if errors.Is(err, app.ErrUnknownKind) {
						return fmt.Errorf("%w (want one of %s)", err, strings.Join(d.ExportKinds(), ", "))
					}
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", app.FormatCSV, "csv, json or table")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVarP(&scope.Query, "query", "q", "", "keep records whose text fields contain this")
	cmd.Flags().StringToStringVar(&scope.Filters, "filter", nil, "keep records matching name=value (repeatable)")
	cmd.Flags().StringVar(&scope.ID, "id", "", "export only the record with this id")
	return cmd
}

func newExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Pull CVE ids or indicators out of text",
	}
	read := func(c *cobra.Command, args []string) (string, error) {
		if len(args) == 0 || args[0] == "-" {
			data, err := io.ReadAll(c.InOrStdin())
			if err != nil {
				return "", fmt.Errorf("read stdin: %w", err)
			}
			return string(data), nil
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cves [file]",
		Short: "List CVE ids in first-seen order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			text, err := read(c, args)
			if err != nil {
				return err
			}
			for _, id := range extract.CVEs(text) {
				fmt.Fprintln(c.OutOrStdout(), id)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "indicators [file]",
		Short: "List indicator candidates with their kind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			text, err := read(c, args)
			if err != nil {
				return err
			}
			for _, ind := range extract.Indicators(text) {
				fmt.Fprintf(c.OutOrStdout(), "%s\t%s\n", ind.Kind, ind.Value)
			}
			return nil
		},
	})
	return cmd
}
