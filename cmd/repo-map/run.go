// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/repo-map/internal/discover"
	"github.com/petar-djukic/repo-map/internal/flightplan"
	gitpkg "github.com/petar-djukic/repo-map/internal/git"
	"github.com/petar-djukic/repo-map/pkg/mapper"
)

// progressThreshold is the file count above which a progress bar is shown.
const progressThreshold = 100

var envKeyReplacer = strings.NewReplacer("-", "_")

// runMap discovers files, builds the map, and writes it.
func runMap(cmd *cobra.Command, v *viper.Viper, args []string) error {
	stderr := cmd.ErrOrStderr()
	quiet := v.GetBool("quiet")
	log := newLogger(stderr, v.GetString("log-level"), quiet)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	root := resolveRoot(v.GetString("root"), args, log)

	files, err := discover.Files(ctx, discover.Config{
		Root:        root,
		Paths:       args,
		Include:     v.GetStringSlice("include"),
		Exclude:     v.GetStringSlice("exclude"),
		Extensions:  v.GetStringSlice("ext"),
		NoGitignore: v.GetBool("no-gitignore"),
		NoDefaults:  v.GetBool("no-default-excludes"),
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		if !quiet {
			fmt.Fprintln(stderr, "No matching files found.")
		}
		return nil
	}

	req := mapper.Request{
		Root:      root,
		Files:     make([]string, len(files)),
		Budget:    v.GetInt("tokens"),
		Ranked:    v.GetBool("ranked"),
		ShowCosts: v.GetBool("show-costs"),
		Strict:    v.GetBool("strict"),
		Workers:   v.GetInt("workers"),
		Focus:     focusFromFlags(v.GetStringSlice("focus-path"), v.GetStringSlice("focus-symbol")),
		Logger:    log,
	}
	for i, f := range files {
		req.Files[i] = f.Abs
	}

	if path := v.GetString("flight-plan"); path != "" {
		plan, err := flightplan.Load(path)
		if err != nil {
			return err
		}
		req.Plan = plan
	}

	if !quiet && len(files) > progressThreshold && (req.Plan == nil || req.Ranked) {
		bar := newProgressBar(stderr, len(files))
		req.Progress = func(done, total int, file string) { bar.Set(done) }
		defer bar.Finish()
	}

	res, err := mapper.Build(ctx, req)
	if err != nil {
		return err
	}
	if res.Map == nil {
		if !quiet {
			fmt.Fprintln(stderr, "Nothing to map within the token budget.")
		}
		return nil
	}

	output := res.Map.Content
	if v.GetBool("summary") {
		sorted := append([]string(nil), res.Map.Files...)
		sort.Strings(sorted)
		output = strings.Join(sorted, "\n") + "\n"
	}

	if err := writeOutput(cmd.OutOrStdout(), v.GetString("output"), output); err != nil {
		return err
	}

	if !quiet {
		printSummary(stderr, res, v.GetString("output"))
	}
	return nil
}

// resolveRoot picks the directory paths are reported against: the --root
// flag, else the git work tree enclosing the first path, else that path.
func resolveRoot(flag string, args []string, log zerolog.Logger) string {
	if flag != "" {
		return flag
	}
	start := "."
	if len(args) > 0 {
		start = args[0]
		if info, err := os.Stat(start); err == nil && !info.IsDir() {
			start = filepath.Dir(start)
		}
	}
	repo, err := gitpkg.Open(start)
	if err != nil {
		if !errors.Is(err, gitpkg.ErrNoGit) {
			log.Warn().Err(err).Msg("locating repository")
		}
		return start
	}
	log.Debug().Str("root", repo.Root()).Str("head", repo.Head()).Msg("using git work tree")
	return repo.Root()
}

// focusFromFlags turns --focus-path and --focus-symbol into boosts with
// the default weight.
func focusFromFlags(paths, symbols []string) *flightplan.Focus {
	if len(paths) == 0 && len(symbols) == 0 {
		return nil
	}
	focus := &flightplan.Focus{}
	for _, p := range paths {
		focus.Paths = append(focus.Paths, flightplan.PathBoost{Pattern: p, Weight: flightplan.DefaultBoostWeight})
	}
	for _, s := range symbols {
		focus.Symbols = append(focus.Symbols, flightplan.SymbolBoost{Name: s, Weight: flightplan.DefaultBoostWeight})
	}
	return focus
}

func newLogger(w io.Writer, level string, quiet bool) zerolog.Logger {
	if quiet {
		return zerolog.Nop()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).
		With().Timestamp().
		Logger()
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Extracting tags"),
		progressbar.OptionClearOnFinish(),
	)
}

// writeOutput writes content to path, or to w when path is empty.
func writeOutput(w io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// printSummary reports what was mapped.
func printSummary(w io.Writer, res *mapper.Result, output string) {
	if output != "" {
		fmt.Fprintf(w, "Saved to %s\n", output)
	}
	fmt.Fprintf(w, "Mapped %d files, ~%d tokens", len(res.Map.Files), res.Map.TotalTokens)
	if res.Manifest != nil {
		fmt.Fprintf(w, " (budget %d)", res.Manifest.Budget())
	}
	fmt.Fprintln(w)

	if res.Manifest != nil && res.Manifest.IsOverBudget() {
		fmt.Fprintf(w, "Over budget by %d tokens; largest files:\n", res.Manifest.Overrun())
		for _, c := range res.Manifest.TopContributors(5) {
			fmt.Fprintf(w, "  %6d  %s (%s)\n", c.Tokens, c.Path, c.Level)
		}
	}
	if n := len(res.Unreadable); n > 0 {
		fmt.Fprintf(w, "Skipped %d unreadable files\n", n)
	}
}
