package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/co2stats/internal/core"
)

func (c *cli) cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean IN OUT",
		Short: "Replace each line's delimiter with a tab",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := core.CleanFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines written to %s\n", n, args[1])
			return nil
		},
	}
}

func (c *cli) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize IN OUT",
		Short: "Reshape tab-separated lines into ISO, name, year, emission, population",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := core.FinalCleanFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines written to %s\n", n, args[1])
			return nil
		},
	}
}

func (c *cli) annotateCmd() *cobra.Command {
	var continents string
	cmd := &cobra.Command{
		Use:   "annotate IN OUT",
		Short: "Insert the continent column into normalized lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := core.AddContinentsFile(cmd.Context(), args[0], continents, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines written to %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&continents, "continents", envOr("DATA_CONTINENTS_PATH", "data/continents.txt"), "ISO_CODE<TAB>Continent table")
	return cmd
}
