// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command repo-map prints a token-budgeted map of a repository.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/repo-map/internal/flightplan"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to v so that
// REPO_MAP_* environment variables and .repo-map.yaml can set them.
func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repo-map [paths...]",
		Short: "Token-budgeted repository map",
		Long: "repo-map ranks the definitions of a repository by how often they are referenced " +
			"and prints the most important ones within a token budget. With a flight plan, " +
			"each file is rendered at the verbosity the plan assigns instead.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, v, args)
		},
	}

	// Global flags.
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolP("quiet", "q", false, "Suppress logs and the summary")

	f := rootCmd.Flags()
	f.IntP("tokens", "t", 1024, "Token budget of the ranked map")
	f.String("flight-plan", "", "YAML flight plan for multi-resolution rendering")
	f.Bool("ranked", false, "Build a ranked map even when a flight plan is given")
	f.Bool("show-costs", false, "Annotate each file with its cost at every level")
	f.Bool("strict", false, "Fail when the flight plan budget is exceeded")
	f.StringSliceP("include", "i", nil, "Glob patterns to include, overriding excludes")
	f.StringSliceP("exclude", "e", nil, "Gitignore-style patterns to exclude")
	f.StringSlice("ext", nil, "Only map files with these extensions")
	f.Bool("no-gitignore", false, "Do not read .gitignore files")
	f.Bool("no-default-excludes", false, "Do not skip lock files and editor config")
	f.StringP("output", "o", "", "Write the map to a file instead of stdout")
	f.BoolP("summary", "s", false, "Print only the list of mapped files")
	f.Int("workers", 0, "Parallel tag extraction workers (default: number of CPUs)")
	f.StringSlice("focus-path", nil, "Path globs to boost in the ranked map")
	f.StringSlice("focus-symbol", nil, "Symbol names to boost in the ranked map")
	f.String("root", "", "Repository root (default: enclosing git work tree)")

	// Bind flags to viper.
	v.BindPFlags(pf)
	v.BindPFlags(f)

	// Env vars: REPO_MAP_TOKENS, REPO_MAP_FLIGHT_PLAN, etc.
	v.SetEnvPrefix("REPO_MAP")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Config file.
	v.SetConfigName(".repo-map")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newValidateCmd creates the "validate" command.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.yaml>",
		Short: "Check a flight plan and print it with defaults applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := flightplan.Load(args[0])
			if err != nil {
				return err
			}
			out, err := plan.YAML()
			if err != nil {
				return fmt.Errorf("encoding plan: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: valid (%d rules, budget %d)\n", args[0], len(plan.Rules()), plan.Budget())
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print repo-map version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "repo-map %s\n", version)
		},
	}
}
