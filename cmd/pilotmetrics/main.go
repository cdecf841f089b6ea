// Package main provides the CLI entrypoint for pilotmetrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pilotmetrics/internal/config"
	"github.com/verte-zerg/pilotmetrics/internal/console"
	"github.com/verte-zerg/pilotmetrics/internal/dashboard"
	"github.com/verte-zerg/pilotmetrics/internal/flatten"
	"github.com/verte-zerg/pilotmetrics/internal/ingest"
	"github.com/verte-zerg/pilotmetrics/internal/model"
	"github.com/verte-zerg/pilotmetrics/internal/schema"
	"github.com/verte-zerg/pilotmetrics/internal/stats"
	"github.com/verte-zerg/pilotmetrics/internal/statsui"
	"github.com/verte-zerg/pilotmetrics/internal/store"
	"github.com/verte-zerg/pilotmetrics/internal/warehouse"
	"github.com/verte-zerg/pilotmetrics/internal/warehouse/bigquery"
)

const (
	defaultOutput = "dashboard.html"
	defaultDriver = store.SQLite
)

var (
	verbose bool

	uploadLocation     string
	uploadPullRequests bool

	visualizeOutput string
	visualizeNoOpen bool

	sqlDriver       string
	sqlDSN          string
	sqlPullRequests bool

	queryDB     bool
	querySince  string
	queryUntil  string
	queryEditor string
)

// Replaced in tests.
var (
	newBigQuerySink = func(ctx context.Context, settings bigquery.Settings, opts warehouse.Options, logger *slog.Logger) (closingSink, error) {
		return bigquery.New(ctx, settings, opts, logger)
	}
	openDashboard = dashboard.Open
	runProgram    = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

type closingSink interface {
	warehouse.Sink
	Close() error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(console.New(stderr), err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pilotmetrics",
		Short:         "Process and visualize GitHub Copilot usage data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log sink progress to stderr")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newVisualizeCmd())
	rootCmd.AddCommand(newLoadSQLCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-to-bq [file|-]",
		Short: "Upload the processed data to BigQuery tables",
		Long:  "Upload the processed data to BigQuery tables.\nRequires GCP_PROJECT_ID and BQ_DATASET, from the environment or the [bigquery] config table.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUploadCmd,
	}
	cmd.Flags().StringVar(&uploadLocation, "location", "", "dataset location when it has to be created (default US)")
	cmd.Flags().BoolVar(&uploadPullRequests, "with-pull-requests", false, "also load the pull_request_summaries table")
	return cmd
}

func runUploadCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "with-pull-requests", &uploadPullRequests, fileCfg.BigQuery.PullRequests)
	target, err := config.ResolveBigQuery(fileCfg.BigQuery)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("location") {
		target.Location = uploadLocation
	}

	batch, err := loadBatch(cmd, args)
	if err != nil {
		return err
	}

	p := console.New(cmd.ErrOrStderr())
	p.Info("Starting upload to BigQuery...")
	sink, err := newBigQuerySink(cmd.Context(), bigquery.Settings{
		ProjectID: target.ProjectID,
		Dataset:   target.Dataset,
		Location:  target.Location,
	}, warehouse.Options{WithPullRequests: uploadPullRequests}, console.NewLogger(cmd.ErrOrStderr(), verbose))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logErrf(cmd, "failed to close bigquery client: %v\n", cerr)
		}
	}()
	if err := sink.Load(cmd.Context(), batch); err != nil {
		return err
	}
	p.Success("BigQuery upload complete.")
	return nil
}

func newVisualizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visualize [file|-]",
		Short: "Generate a local, interactive HTML dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVisualizeCmd,
	}
	cmd.Flags().StringVarP(&visualizeOutput, "output", "o", defaultOutput, "dashboard file to write")
	cmd.Flags().BoolVar(&visualizeNoOpen, "no-open", false, "do not open the dashboard in a browser")
	return cmd
}

func runVisualizeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "output", &visualizeOutput, fileCfg.Dashboard.Output)
	openBrowser := !visualizeNoOpen
	if fileCfg.Dashboard.Open != nil && !cmd.Flags().Changed("no-open") {
		openBrowser = *fileCfg.Dashboard.Open
	}

	batch, err := loadBatch(cmd, args)
	if err != nil {
		return err
	}

	p := console.New(cmd.ErrOrStderr())
	d, ok := stats.BuildDashboard(batch)
	if !ok {
		p.Warn("No completion data found to visualize.")
		return nil
	}

	p.Info("Generating local dashboard...")
	path, err := filepath.Abs(visualizeOutput)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := dashboard.WriteFile(path, d); err != nil {
		return err
	}
	p.Success("Dashboard saved to %s", path)
	if !openBrowser {
		return nil
	}
	if err := openDashboard(path); err != nil {
		p.Warn("could not open a browser (%v); open %s manually", err, path)
	}
	return nil
}

func newLoadSQLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load-sql [file|-]",
		Short: "Append the processed data to a SQL warehouse",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoadSQLCmd,
	}
	addStoreFlags(cmd)
	return cmd
}

func runLoadSQLCmd(cmd *cobra.Command, args []string) error {
	batch, err := loadBatch(cmd, args)
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(cmd, st)

	p := console.New(cmd.ErrOrStderr())
	p.Info("Loading rows into %s...", sqlDriver)
	if err := st.Load(cmd.Context(), batch); err != nil {
		return err
	}
	p.Success("SQL load complete.")
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [file|-]",
		Short: "Print a usage report to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReportCmd,
	}
	addQueryFlags(cmd)
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	batch, _, err := queryBatch(cmd, args)
	if err != nil {
		return err
	}
	d, ok := stats.BuildDashboard(batch)
	if !ok {
		console.New(cmd.ErrOrStderr()).Warn("No completion data found.")
		return nil
	}
	return stats.RenderReport(cmd.OutOrStdout(), d, 0, false)
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [file|-]",
		Short: "Browse usage interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowseCmd,
	}
	addQueryFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	batch, filter, err := queryBatch(cmd, args)
	if err != nil {
		return err
	}
	if err := runProgram(statsui.NewModel(batch, filter)); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sqlDriver, "driver", defaultDriver, "warehouse driver: sqlite, mysql or postgres")
	cmd.Flags().StringVar(&sqlDSN, "dsn", "", "connection string (default: sqlite file in the XDG data dir)")
	cmd.Flags().BoolVar(&sqlPullRequests, "with-pull-requests", false, "manage the pull_request_summaries table")
}

func addQueryFlags(cmd *cobra.Command) {
	addStoreFlags(cmd)
	cmd.Flags().BoolVar(&queryDB, "db", false, "read rows from the SQL warehouse instead of a file")
	cmd.Flags().StringVar(&querySince, "since", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&queryUntil, "until", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&queryEditor, "editor", "", "only rows for this editor")
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "driver", &sqlDriver, fileCfg.SQL.Driver)
	applyStringConfig(cmd, "dsn", &sqlDSN, fileCfg.SQL.DSN)
	applyBoolConfig(cmd, "with-pull-requests", &sqlPullRequests, fileCfg.SQL.PullRequests)

	dsn := sqlDSN
	if dsn == "" {
		if sqlDriver != store.SQLite {
			return nil, fmt.Errorf("%w: --dsn must be set for driver %s", config.ErrMissing, sqlDriver)
		}
		dsn = config.DefaultDBPath()
	}
	return store.Open(cmd.Context(), sqlDriver, dsn, warehouse.Options{WithPullRequests: sqlPullRequests})
}

func closeStore(cmd *cobra.Command, st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf(cmd, "failed to close db: %v\n", cerr)
	}
}

func queryBatch(cmd *cobra.Command, args []string) (model.Batch, model.Filter, error) {
	filter := model.Filter{
		Since:  strings.TrimSpace(querySince),
		Until:  strings.TrimSpace(queryUntil),
		Editor: strings.TrimSpace(queryEditor),
	}
	if err := validateFilter(filter); err != nil {
		return model.Batch{}, filter, err
	}
	if !queryDB {
		batch, err := loadBatch(cmd, args)
		if err != nil {
			return model.Batch{}, filter, err
		}
		return stats.FilterBatch(batch, filter), filter, nil
	}
	if len(args) > 0 {
		return model.Batch{}, filter, fmt.Errorf("--db does not take an input file")
	}
	st, err := openStore(cmd)
	if err != nil {
		return model.Batch{}, filter, err
	}
	defer closeStore(cmd, st)
	batch, err := st.Batch(cmd.Context(), filter)
	if err != nil {
		return model.Batch{}, filter, err
	}
	return batch, filter, nil
}

func validateFilter(filter model.Filter) error {
	for name, value := range map[string]string{"since": filter.Since, "until": filter.Until} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return fmt.Errorf("invalid --%s value %q (expected YYYY-MM-DD)", name, value)
		}
	}
	if filter.Since != "" && filter.Until != "" && filter.Since > filter.Until {
		return fmt.Errorf("--since must not be after --until")
	}
	return nil
}

func loadBatch(cmd *cobra.Command, args []string) (model.Batch, error) {
	path := ingest.StdinPath
	if len(args) > 0 {
		path = args[0]
	}
	p := console.New(cmd.ErrOrStderr())
	if path == ingest.StdinPath {
		p.Info("Reading data from stdin...")
	} else {
		p.Info("Reading data from '%s'...", path)
	}
	days, err := ingest.Load(path, cmd.InOrStdin())
	if err != nil {
		return model.Batch{}, err
	}
	p.Success("Successfully parsed %d daily records.", len(days))
	n := flatten.Counts(days)
	p.Info("Flattened %d completion, %d chat and %d pull request rows.", n.Completions, n.Chats, n.PullRequests)
	return flatten.Flatten(days), nil
}

func reportError(p *console.Printer, err error) {
	var v *schema.Violation
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		p.Error("%s", strings.TrimPrefix(err.Error(), ingest.ErrNotFound.Error()+": "))
	case errors.Is(err, schema.ErrMalformed):
		p.Error("Invalid JSON data provided.")
		p.Info("%v", err)
	case errors.As(err, &v):
		p.Error("Invalid data at %s: expected %s, got %s", v.Path, v.Expected, v.Got)
	case errors.Is(err, config.ErrMissing):
		p.Error("%v", err)
		p.Info("Set it in the environment or in %s", config.DefaultConfigPath())
	case errors.Is(err, warehouse.ErrSink):
		p.Error("upload failed: %v", err)
	default:
		p.Error("%v", err)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pilotmetrics configuration
# Uncomment a value to enable it. CLI flags and environment variables override config values.

[bigquery]
# project-id = "my-project"   # Overridden by %s
# dataset = "copilot_usage"   # Overridden by %s
# location = %q               # Used when the dataset is created; overridden by %s
# pull-requests = false       # Also load the pull_request_summaries table

[sql]
# driver = %q             # sqlite, mysql or postgres
# dsn = %q
# pull-requests = false

[dashboard]
# output = %q  # File written by visualize
# open = true             # Open the dashboard in a browser
`,
		config.EnvProjectID,
		config.EnvDataset,
		bigquery.DefaultLocation,
		config.EnvLocation,
		defaultDriver,
		config.DefaultDBPath(),
		defaultOutput,
	)
}

func logErrf(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
