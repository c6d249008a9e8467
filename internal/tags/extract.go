// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tags extracts definition and reference tags from source files
// with tree-sitter. Queries are embedded per language under queries/ and
// are selected by verbosity hint with a fallback to the default tags query.
package tags

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const (
	defCapturePrefix  = "name.definition."
	refCapturePrefix  = "name.reference."
	nodeCapturePrefix = "definition."
)

// Request describes one extraction call.
type Request struct {
	AbsPath string               // Absolute path; used for language detection
	RelPath string               // Display path recorded on each tag
	Content []byte               // File text
	Hint    types.VerbosityLevel // Structure or Interface select a level-specific query
	Query   string               // Custom query text; replaces the embedded lookup when set
}

func (r Request) path() string {
	if r.AbsPath != "" {
		return r.AbsPath
	}
	return r.RelPath
}

// Extractor runs tag queries over source text. Compiled queries are cached
// and shared; parsers and cursors are created per call so one Extractor
// may be used from several goroutines.
type Extractor struct {
	mu      sync.Mutex
	queries map[string]*sitter.Query
	log     zerolog.Logger
}

// NewExtractor creates an extractor with an empty query cache.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{
		queries: make(map[string]*sitter.Query),
		log:     logger,
	}
}

// Extract returns the tags found in req.Content. Each call returns a fresh
// slice. Unsupported languages, missing queries and parse failures all
// yield an empty result.
func (e *Extractor) Extract(ctx context.Context, req Request) []types.Tag {
	lang, ok := LanguageForFile(req.path())
	if !ok {
		return nil
	}
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil
	}

	q, ok := e.query(lang, grammar, req)
	if !ok {
		return nil
	}

	root, err := sitter.ParseCtx(ctx, req.Content, grammar)
	if err != nil || root == nil {
		e.log.Debug().Err(err).Str("file", req.RelPath).Msg("parse failed")
		return nil
	}

	result, sawDef, sawRef := runQuery(q, root, req)
	if sawDef && !sawRef {
		result = append(result, backfillRefs(root, req)...)
	}
	return result
}

// query returns the compiled query for the request, compiling it on first use.
func (e *Extractor) query(lang string, grammar *sitter.Language, req Request) (*sitter.Query, bool) {
	var key string
	var text []byte
	if req.Query != "" {
		key = lang + "\x00custom\x00" + req.Query
		text = []byte(req.Query)
	} else {
		name, data, found := lookupQuery(lang, req.Hint)
		if !found {
			e.log.Debug().Str("lang", lang).Str("file", req.RelPath).Msg("no query for language")
			return nil, false
		}
		key = lang + "\x00" + name
		text = data
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if q, ok := e.queries[key]; ok {
		return q, q != nil
	}
	q, err := sitter.NewQuery(text, grammar)
	if err != nil {
		e.log.Warn().Err(err).Str("lang", lang).Msg("compiling query")
		e.queries[key] = nil
		return nil, false
	}
	e.queries[key] = q
	return q, true
}

// runQuery executes q and converts name captures into tags.
func runQuery(q *sitter.Query, root *sitter.Node, req Request) (result []types.Tag, sawDef, sawRef bool) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[string]bool) // Deduplicate definitions by name+line.

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		endLine := -1
		for _, c := range m.Captures {
			if strings.HasPrefix(q.CaptureNameForId(c.Index), nodeCapturePrefix) {
				endLine = lastLine(c.Node)
			}
		}

		for _, c := range m.Captures {
			captureName := q.CaptureNameForId(c.Index)
			var kind types.TagKind
			switch {
			case strings.HasPrefix(captureName, defCapturePrefix):
				kind = types.Definition
			case strings.HasPrefix(captureName, refCapturePrefix):
				kind = types.Reference
			default:
				continue
			}

			name := strings.TrimSpace(c.Node.Content(req.Content))
			if name == "" {
				continue
			}
			line := int(c.Node.StartPoint().Row)

			if kind == types.Definition {
				key := name + ":" + strconv.Itoa(line)
				if seen[key] {
					continue
				}
				seen[key] = true
				sawDef = true
			} else {
				sawRef = true
			}

			end := line
			if kind == types.Definition && endLine >= line {
				end = endLine
			}
			result = append(result, types.Tag{
				FilePath: req.AbsPath,
				RelPath:  req.RelPath,
				Line:     line,
				EndLine:  end,
				Name:     name,
				Kind:     kind,
			})
		}
	}
	return result, sawDef, sawRef
}

// lastLine is the last row holding text of n. A node that stops at the
// start of a line, such as a markdown section, ends on the row before.
func lastLine(n *sitter.Node) int {
	start, end := n.StartPoint(), n.EndPoint()
	if end.Column == 0 && end.Row > start.Row {
		return int(end.Row) - 1
	}
	return int(end.Row)
}

// backfillRefs emits a reference for every identifier-class leaf in the
// tree, in document order. Positions are reported as -1.
func backfillRefs(root *sitter.Node, req Request) []types.Tag {
	var refs []types.Tag
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		count := int(n.ChildCount())
		if count == 0 {
			if n.IsNamed() && strings.Contains(n.Type(), "identifier") {
				if name := n.Content(req.Content); name != "" {
					refs = append(refs, types.Tag{
						FilePath: req.AbsPath,
						RelPath:  req.RelPath,
						Line:     -1,
						EndLine:  -1,
						Name:     name,
						Kind:     types.Reference,
					})
				}
			}
			return
		}
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return refs
}

// Parse returns the syntax tree root for content, or false when the
// language is unsupported or parsing fails.
func Parse(ctx context.Context, path string, content []byte) (*sitter.Node, bool) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, false
	}
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil, false
	}
	root, err := sitter.ParseCtx(ctx, content, grammar)
	if err != nil || root == nil {
		return nil, false
	}
	return root, true
}
