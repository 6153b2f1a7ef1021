package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/co2stats/internal/app"
	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/store"
)

func (c *cli) importCmd() *cobra.Command {
	db := config.DatabaseConfig{MaxConns: 4, MinConns: 0}
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Run the pipeline over FILE and store the result as a new run",
		Long: `import loads FILE like the report commands do and saves every record
under a new run id. A server started without DATA_EMISSIONS_PATH boots from
the latest stored run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !db.Enabled() {
				return fmt.Errorf("invalid parameter: --db-url or DATABASE_URL is required")
			}
			ctx := cmd.Context()

			st, err := store.Open(ctx, db)
			if err != nil {
				return err
			}
			defer st.Close()

			data := c.data
			data.EmissionsPath = args[0]
			data.SaveRun = true
			loader := &app.Loader{Data: data, Store: st, Logger: c.logger}
			if _, err := loader.Load(ctx); err != nil {
				return err
			}

			run, err := st.LatestRun(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d countries, %d records, years %d-%d\n",
				run.ID, run.Countries, run.Records, run.MinYear, run.MaxYear)
			return nil
		},
	}
	c.addDataFlags(cmd)
	cmd.Flags().StringVar(&db.URL, "db-url", envOr("DATABASE_URL", envOr("DB_URL", "")), "PostgreSQL URL or SQLite path")
	cmd.Flags().StringVar(&db.Driver, "db-driver", envOr("DB_DRIVER", "postgres"), "postgres or sqlite")
	return cmd
}
