// Command co2 runs the emissions pipeline stages and reports from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/co2stats/internal/app"
	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/core"
	"github.com/JonMunkholm/co2stats/internal/logging"
)

// cli holds the flags shared by every subcommand.
type cli struct {
	logLevel  string
	logFormat string

	data config.DataConfig

	logger *slog.Logger
}

func main() {
	// A missing .env is fine for the CLI.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n%s\n", err, core.FormatUserError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "co2",
		Short: "CO2 emissions pipeline",
		Long: `co2 cleans raw emission tables, annotates them with continents and
reports per-capita and historical rankings.

Pipeline:
  co2 clean raw.txt tabbed.txt
  co2 normalize tabbed.txt normalized.txt
  co2 annotate normalized.txt annotated.txt --continents continents.txt
  co2 top annotated.txt --format annotated --year 2018`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = logging.New(cmd.ErrOrStderr(), c.logLevel, c.logFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	pf.StringVar(&c.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")

	root.AddCommand(
		c.cleanCmd(),
		c.normalizeCmd(),
		c.annotateCmd(),
		c.topCmd(),
		c.continentsCmd(),
		c.seriesCmd(),
		c.importCmd(),
	)
	return root
}

// addDataFlags registers the pipeline settings on a command that loads a
// dataset from an emissions file.
func (c *cli) addDataFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.data.Format, "format", envOr("DATA_FORMAT", string(core.FormatRaw)), "input format: raw, normalized or annotated")
	f.StringVar(&c.data.ContinentsPath, "continents", envOr("DATA_CONTINENTS_PATH", "data/continents.txt"), "ISO_CODE<TAB>Continent table")
	f.StringVar(&c.data.MergePolicy, "merge", envOr("DATA_MERGE_POLICY", "keep-first"), "repeated year policy: keep-first or overwrite")
	f.StringVar(&c.data.YearTracking, "year-tracking", envOr("DATA_YEAR_TRACKING", "faithful"), "year bound tracking: faithful or corrected")
	f.BoolVar(&c.data.SkipInvalidCodes, "skip-invalid", false, "skip records with an invalid ISO code instead of failing")
}

// loadDataset runs the pipeline over path with the data flags.
func (c *cli) loadDataset(ctx context.Context, path string) (*core.Dataset, error) {
	data := c.data
	data.EmissionsPath = path
	opts, err := app.LoadOptions(data, nil, c.logger)
	if err != nil {
		return nil, err
	}
	return core.LoadDataset(ctx, opts)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
