// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package discover finds the text files of a repository that belong in a
// map. It honours .gitignore files, a set of default excludes for noisy
// files, and user include/exclude patterns.
package discover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
)

// binarySniffSize is how much of a file is checked for NUL bytes.
const binarySniffSize = 8 * 1024

// ErrInvalidPattern is returned when an include pattern is not a valid glob.
var ErrInvalidPattern = errors.New("invalid pattern")

// DefaultExcludes are files that are text but too noisy to map.
var DefaultExcludes = []string{
	"uv.lock",
	"poetry.lock",
	"Pipfile.lock",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
	"Gemfile.lock",
	".editorconfig",
	".prettierrc*",
	".eslintrc*",
	".ruff.toml",
	".pylintrc",
	".vscode/",
	".idea/",
	".gitattributes",
	".gitmodules",
	"__pycache__/",
	"node_modules/",
	"coverage.xml",
	".DS_Store",
}

// Config controls a walk.
type Config struct {
	Root        string         // Repository root; relative paths are reported against it
	Paths       []string       // Files or directories to walk (default: Root)
	Include     []string       // Doublestar patterns that override every exclusion
	Exclude     []string       // Gitignore-style patterns to skip
	Extensions  []string       // Only keep files with these extensions ("go" or ".go")
	NoGitignore bool           // Ignore .gitignore files
	NoDefaults  bool           // Do not apply DefaultExcludes
	Logger      zerolog.Logger // Structured logger (default: disabled)
}

// File is a discovered file.
type File struct {
	Abs string // Absolute path
	Rel string // Slash-separated path relative to Root
}

type walker struct {
	root       string
	include    []string
	exclude    *ignore.GitIgnore
	defaults   *ignore.GitIgnore
	gitignore  gitignore.Matcher
	extensions map[string]bool
	log        zerolog.Logger
	seen       map[string]bool
	out        []File
}

// Files walks cfg.Paths and returns the files to map, sorted by relative
// path. Unreadable entries are skipped.
func Files(ctx context.Context, cfg Config) ([]File, error) {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	for _, p := range cfg.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}

	w := &walker{
		root:       root,
		include:    cfg.Include,
		exclude:    ignore.CompileIgnoreLines(cfg.Exclude...),
		extensions: normalizeExtensions(cfg.Extensions),
		log:        cfg.Logger.With().Str("component", "discover").Logger(),
		seen:       make(map[string]bool),
	}
	if !cfg.NoDefaults {
		w.defaults = ignore.CompileIgnoreLines(DefaultExcludes...)
	}
	if !cfg.NoGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			w.log.Warn().Err(err).Msg("reading .gitignore files")
		}
		w.gitignore = gitignore.NewMatcher(patterns)
	}

	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{root}
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.walkPath(ctx, p); err != nil {
			return nil, err
		}
	}

	sort.Slice(w.out, func(i, j int) bool { return w.out[i].Rel < w.out[j].Rel })
	w.log.Debug().Int("files", len(w.out)).Str("root", root).Msg("discovered files")
	return w.out, nil
}

func (w *walker) walkPath(ctx context.Context, p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		w.log.Warn().Err(err).Str("path", p).Msg("skipping path")
		return nil
	}
	if !info.IsDir() {
		// Named files are kept as long as they are text.
		if isText(abs) {
			w.add(abs)
		}
		return nil
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := w.rel(path)
		if d.IsDir() {
			if path == abs || w.keepDir(rel, d.Name()) {
				return nil
			}
			return filepath.SkipDir
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		if w.keepFile(path, rel, d.Name()) {
			w.add(path)
		}
		return nil
	})
}

func (w *walker) keepDir(rel, name string) bool {
	if name == ".git" {
		return false
	}
	if w.included(rel) || w.mayIncludeUnder(rel) {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !w.excluded(rel, true)
}

func (w *walker) keepFile(abs, rel, name string) bool {
	if w.included(rel) {
		return true
	}
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	if w.excluded(rel, false) {
		return false
	}
	return isText(abs)
}

func (w *walker) excluded(rel string, isDir bool) bool {
	if rel == "" || strings.HasPrefix(rel, "../") {
		return false
	}
	if w.gitignore != nil && w.gitignore.Match(strings.Split(rel, "/"), isDir) {
		return true
	}
	candidate := rel
	if isDir {
		candidate += "/"
	}
	if w.exclude.MatchesPath(candidate) {
		return true
	}
	return w.defaults != nil && w.defaults.MatchesPath(candidate)
}

func (w *walker) included(rel string) bool {
	for _, p := range w.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// mayIncludeUnder reports whether an include pattern names something below
// the directory rel.
func (w *walker) mayIncludeUnder(rel string) bool {
	for _, p := range w.include {
		base, _ := doublestar.SplitPattern(p)
		if base == rel || strings.HasPrefix(base, rel+"/") {
			return true
		}
		if ok, _ := doublestar.Match(p, rel+"/x"); ok {
			return true
		}
	}
	return false
}

func (w *walker) add(abs string) {
	if w.seen[abs] {
		return
	}
	w.seen[abs] = true
	w.out = append(w.out, File{Abs: abs, Rel: w.rel(abs)})
}

func (w *walker) rel(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		for _, part := range strings.Split(e, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			out[part] = true
		}
	}
	return out
}

// isText reports whether the start of the file at path has no NUL byte.
func isText(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, binarySniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return !bytes.Contains(buf[:n], []byte{0})
}
