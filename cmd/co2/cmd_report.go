package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/co2stats/internal/core"
)

const (
	metricPerCapita  = "per-capita"
	metricHistorical = "historical"
)

func checkMetric(metric string) error {
	if metric != metricPerCapita && metric != metricHistorical {
		return fmt.Errorf("invalid parameter: metric %q, want %s or %s", metric, metricPerCapita, metricHistorical)
	}
	return nil
}

// reportYear returns year, or the latest year of ds when year is 0.
func reportYear(ds *core.Dataset, year int) (int, error) {
	if year != 0 {
		return year, nil
	}
	latest, ok := ds.Registry.Years().Max()
	if !ok {
		return 0, fmt.Errorf("invalid parameter: --year is required, the dataset has no years")
	}
	return latest, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func (c *cli) topCmd() *cobra.Command {
	var (
		year   int
		n      int
		metric string
	)
	cmd := &cobra.Command{
		Use:   "top FILE",
		Short: "Rank countries by per-capita or historical emission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMetric(metric); err != nil {
				return err
			}
			ds, err := c.loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if year, err = reportYear(ds, year); err != nil {
				return err
			}

			countries := ds.Registry.All()
			ranked := core.TopHistorical(countries, year, n)
			if metric == metricPerCapita {
				ranked = core.TopPerCapita(countries, year, n)
			}

			out := cmd.OutOrStdout()
			for i, r := range ranked {
				fmt.Fprintf(out, "%d\t%s\t%s\n", i+1, r.ISOCode, formatValue(r.Value))
			}
			return nil
		},
	}
	c.addDataFlags(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "ranking year (default: latest year in the data)")
	cmd.Flags().IntVarP(&n, "count", "n", 10, "number of countries")
	cmd.Flags().StringVar(&metric, "metric", metricPerCapita, "per-capita or historical")
	return cmd
}

func (c *cli) continentsCmd() *cobra.Command {
	var (
		year   int
		metric string
	)
	cmd := &cobra.Command{
		Use:   "continents FILE",
		Short: "Aggregate emissions by continent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkMetric(metric); err != nil {
				return err
			}
			ds, err := c.loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if year, err = reportYear(ds, year); err != nil {
				return err
			}

			countries := ds.Registry.All()
			bars := core.ContinentHistoricalBars(countries, year)
			if metric == metricPerCapita {
				bars = core.ContinentPerCapitaBars(countries, year)
			}

			out := cmd.OutOrStdout()
			for i, label := range bars.Labels {
				fmt.Fprintf(out, "%s\t%s\n", label, formatValue(bars.Values[i]))
			}
			return nil
		},
	}
	c.addDataFlags(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "year (default: latest year in the data)")
	cmd.Flags().StringVar(&metric, "metric", metricPerCapita, "per-capita or historical")
	return cmd
}

func (c *cli) seriesCmd() *cobra.Command {
	var (
		isoCodes []string
		from, to int
		sampled  bool
	)
	cmd := &cobra.Command{
		Use:   "series FILE",
		Short: "Print yearly emissions of selected countries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(isoCodes) == 0 {
				return fmt.Errorf("invalid parameter: --iso is required")
			}
			ds, err := c.loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("from") {
				from, _ = ds.Registry.Years().Min()
			}
			if !cmd.Flags().Changed("to") {
				to, _ = ds.Registry.Years().Max()
			}

			set, err := core.EmissionSeries(ds.Registry, isoCodes, from, to)
			if err != nil {
				return err
			}
			for _, code := range set.Missing {
				c.logger.Warn("no data for country", "iso_code", code)
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping unknown country %s\n", code)
			}

			years, values := make([]int, 0, to-from+1), set.Values
			for i := 0; i <= to-from; i++ {
				years = append(years, from+i)
			}
			if sampled {
				years, values = set.SampledYears, set.SampledValues
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "year\t%s\n", strings.Join(set.ISOCodes, "\t"))
			for i, y := range years {
				row := make([]string, len(values))
				for j := range values {
					row[j] = formatValue(values[j][i])
				}
				fmt.Fprintf(out, "%d\t%s\n", y, strings.Join(row, "\t"))
			}
			return nil
		},
	}
	c.addDataFlags(cmd)
	cmd.Flags().StringSliceVar(&isoCodes, "iso", nil, "comma-separated ISO codes")
	cmd.Flags().IntVar(&from, "from", 0, "first year (default: earliest year in the data)")
	cmd.Flags().IntVar(&to, "to", 0, "last year (default: latest year in the data)")
	cmd.Flags().BoolVar(&sampled, "sampled", false, "print only the sampled plot years")
	return cmd
}
