// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/petar-djukic/repo-map/internal/tags"
	"github.com/petar-djukic/repo-map/pkg/types"
)

// cacheEntry stores extraction results keyed by file path and mod time.
type cacheEntry struct {
	modTime time.Time
	tags    []types.Tag
}

// ExtractStats tracks extraction statistics for one map build.
type ExtractStats struct {
	FilesProcessed int
	FilesSkipped   int
	CacheHits      int
	ParseCount     int
}

// sourceFile is one input file after stat.
type sourceFile struct {
	abs     string
	rel     string
	modTime time.Time
}

// statFiles resolves the input list into sorted, de-duplicated source
// files. Paths that cannot be stat'ed or are directories are remembered as
// unreadable and dropped.
func (e *Engine) statFiles(files []string) []sourceFile {
	seen := make(map[string]bool, len(files))
	var out []sourceFile
	for _, f := range files {
		abs := e.absPath(f)
		if seen[abs] {
			continue
		}
		seen[abs] = true

		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			e.markUnreadable(abs, err)
			continue
		}
		out = append(out, sourceFile{abs: abs, rel: e.relPath(abs), modTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out
}

// extractAll extracts tags from every file using a bounded worker pool.
// Results are returned in input order so graph construction is
// deterministic regardless of scheduling. readable[i] is false when
// files[i] could not be read.
func (e *Engine) extractAll(ctx context.Context, files []sourceFile) (results [][]types.Tag, readable []bool, err error) {
	results = make([][]types.Tag, len(files))
	readable = make([]bool, len(files))

	workers := e.cfg.Workers
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var done int
	var progressMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results[i], readable[i] = e.extractFile(ctx, files[i])

				if e.cfg.Progress != nil {
					progressMu.Lock()
					done++
					e.cfg.Progress(done, len(files), files[i].rel)
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, readable, nil
}

// extractFile extracts tags from a single file, using the cache if
// possible. It reports false when the file cannot be read.
func (e *Engine) extractFile(ctx context.Context, f sourceFile) ([]types.Tag, bool) {
	e.mu.Lock()
	if cached, ok := e.cache[f.rel]; ok && cached.modTime.Equal(f.modTime) {
		e.stats.CacheHits++
		e.stats.FilesProcessed++
		result := cached.tags
		e.mu.Unlock()
		return result, true
	}
	e.mu.Unlock()

	content, err := os.ReadFile(f.abs)
	if err != nil {
		e.markUnreadable(f.abs, err)
		e.mu.Lock()
		e.stats.FilesSkipped++
		e.mu.Unlock()
		return nil, false
	}

	var result []types.Tag
	if len(content) > 0 {
		result = e.extractor.Extract(ctx, tags.Request{
			AbsPath: f.abs,
			RelPath: f.rel,
			Content: content,
		})
	}

	e.mu.Lock()
	e.stats.ParseCount++
	e.stats.FilesProcessed++
	e.cache[f.rel] = cacheEntry{modTime: f.modTime, tags: result}
	e.mu.Unlock()

	e.log.Debug().Str("file", f.rel).Int("tags", len(result)).Msg("extracted tags")
	return result, true
}

// markUnreadable records path once and logs it the first time.
func (e *Engine) markUnreadable(path string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unreadable[path] {
		return
	}
	e.unreadable[path] = true
	e.log.Warn().Err(err).Str("file", path).Msg("skipping unreadable file")
}
