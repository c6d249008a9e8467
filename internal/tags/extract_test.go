// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tags

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const pythonSource = `class Calculator:
    """Adds things."""

    def add(self, a, b):
        return a + b

def multiply(a, b):
    calc = Calculator()
    return calc.add(a, b) * b
`

const goSource = `package math

// Calculator adds numbers.
type Calculator struct {
	Total int
}

func (c *Calculator) Add(a, b int) int { return a + b }

func Multiply(a, b int) int {
	c := &Calculator{}
	return c.Add(a, b) * b
}
`

func extract(t *testing.T, path, content string, hint types.VerbosityLevel) []types.Tag {
	t.Helper()
	e := NewExtractor(zerolog.Nop())
	return e.Extract(context.Background(), Request{
		AbsPath: "/repo/" + path,
		RelPath: path,
		Content: []byte(content),
		Hint:    hint,
	})
}

func TestExtract_PythonDefinitionsAndReferences(t *testing.T) {
	tags := extract(t, "calc.py", pythonSource, 0)

	defs := filterByKind(tags, types.Definition)
	refs := filterByKind(tags, types.Reference)

	assert.ElementsMatch(t, []string{"Calculator", "add", "multiply"}, tagNames(defs))
	assert.Contains(t, tagNames(refs), "Calculator")
	assert.Contains(t, tagNames(refs), "add")

	byName := indexByName(defs)
	assert.Equal(t, 0, byName["Calculator"].Line, "lines are 0-based")
	assert.Equal(t, 3, byName["add"].Line)
	assert.Equal(t, 6, byName["multiply"].Line)
	assert.Equal(t, 4, byName["add"].EndLine, "end line spans the definition node")

	for _, tg := range tags {
		assert.Equal(t, "calc.py", tg.RelPath)
		assert.Equal(t, "/repo/calc.py", tg.FilePath)
	}
}

func TestExtract_GoDefinitions(t *testing.T) {
	tags := extract(t, "math.go", goSource, 0)

	defNames := tagNames(filterByKind(tags, types.Definition))
	assert.Contains(t, defNames, "Calculator")
	assert.Contains(t, defNames, "Add")
	assert.Contains(t, defNames, "Multiply")

	refNames := tagNames(filterByKind(tags, types.Reference))
	assert.Contains(t, refNames, "Add")
	assert.Contains(t, refNames, "Calculator")
}

func TestExtract_UnsupportedLanguageYieldsNothing(t *testing.T) {
	assert.Empty(t, extract(t, "notes.txt", "just some words", 0))
	assert.Empty(t, extract(t, "image.png", "\x89PNG", 0))
}

func TestExtract_BackfillsReferencesForDefinitionOnlyQueries(t *testing.T) {
	src := "int helper(int x) { return x; }\nint main(void) { return helper(2); }\n"
	tags := extract(t, "main.c", src, 0)

	defs := filterByKind(tags, types.Definition)
	assert.ElementsMatch(t, []string{"helper", "main"}, tagNames(defs))

	refs := filterByKind(tags, types.Reference)
	require.NotEmpty(t, refs)
	assert.Contains(t, tagNames(refs), "helper")
	for _, r := range refs {
		assert.Equal(t, -1, r.Line, "backfilled references have no position")
	}
}

func TestExtract_NoBackfillWithoutDefinitions(t *testing.T) {
	tags := extract(t, "empty.c", "/* nothing here */\n", 0)
	assert.Empty(t, tags)
}

func TestExtract_StructureHintUsesLevelQuery(t *testing.T) {
	tags := extract(t, "calc.py", pythonSource, types.LevelStructure)

	assert.Empty(t, filterByKind(tags, types.Reference), "structure query captures no references")
	assert.ElementsMatch(t, []string{"Calculator", "add", "multiply"}, tagNames(tags))
}

func TestExtract_InterfaceHintAddsDocs(t *testing.T) {
	structure := extract(t, "calc.py", pythonSource, types.LevelStructure)
	iface := extract(t, "calc.py", pythonSource, types.LevelInterface)

	assert.Greater(t, len(filterByKind(iface, types.Definition)), len(filterByKind(structure, types.Definition)))
	lines := make(map[int]bool)
	for _, tg := range iface {
		lines[tg.Line] = true
	}
	assert.True(t, lines[1], "docstring line is captured at interface level")
}

func TestExtract_LevelQueryFallsBackToTags(t *testing.T) {
	src := "class Greeter\n  def hello\n    puts 'hi'\n  end\nend\n"
	def := extract(t, "greeter.rb", src, 0)
	structure := extract(t, "greeter.rb", src, types.LevelStructure)

	assert.Equal(t, def, structure, "ruby has no structure query so tags is used")
	assert.Contains(t, tagNames(structure), "Greeter")
}

const markdownSource = `# Main Title

Some intro text.

## Section One

Content here.

### Subsection

More content.

## Section Two

Another section.
`

func TestExtract_MarkdownHeadingsAreDefinitions(t *testing.T) {
	tags := extract(t, "doc.md", markdownSource, 0)

	defs := filterByKind(tags, types.Definition)
	assert.ElementsMatch(t, []string{"Main Title", "Section One", "Subsection", "Section Two"}, tagNames(defs))

	byName := indexByName(defs)
	assert.Equal(t, 0, byName["Main Title"].Line)
	assert.Equal(t, 4, byName["Section One"].Line)
	assert.Equal(t, 8, byName["Subsection"].Line)
	assert.Equal(t, 12, byName["Section Two"].Line)

	assert.Equal(t, 14, byName["Main Title"].EndLine, "top heading spans the document")
	assert.Equal(t, 14, byName["Section Two"].EndLine)
	assert.GreaterOrEqual(t, byName["Section One"].EndLine, 10, "section covers its subsection")
	assert.Less(t, byName["Section One"].EndLine, 12, "section stops before the next heading")
}

func TestExtract_MarkdownAllHeadingLevels(t *testing.T) {
	src := "# Heading 1\n## Heading 2\n### Heading 3\n#### Heading 4\n##### Heading 5\n###### Heading 6\n"
	defs := filterByKind(extract(t, "levels.md", src, 0), types.Definition)

	assert.ElementsMatch(t, []string{"Heading 1", "Heading 2", "Heading 3", "Heading 4", "Heading 5", "Heading 6"}, tagNames(defs))
}

func TestExtract_MarkdownFenceLanguagesAreReferences(t *testing.T) {
	src := "# Example\n\n```python\ndef example():\n    pass\n```\n\n```javascript\nconsole.log(\"hello\");\n```\n"
	tags := extract(t, "example.md", src, 0)

	refs := filterByKind(tags, types.Reference)
	assert.ElementsMatch(t, []string{"python", "javascript"}, tagNames(refs))
	assert.Equal(t, []string{"Example"}, tagNames(filterByKind(tags, types.Definition)))
}

func TestExtract_MarkdownWithoutHeadings(t *testing.T) {
	assert.Empty(t, extract(t, "empty.md", "", 0))

	src := "Just some text without any headings.\n\n- A list item\n- Another list item\n"
	assert.Empty(t, filterByKind(extract(t, "plain.md", src, 0), types.Definition))
}

func TestExtract_CustomQueryReplacesEmbedded(t *testing.T) {
	e := NewExtractor(zerolog.Nop())
	tags := e.Extract(context.Background(), Request{
		RelPath: "calc.py",
		Content: []byte(pythonSource),
		Query:   `(class_definition name: (identifier) @name.definition.class)`,
	})

	assert.Equal(t, []string{"Calculator"}, tagNames(filterByKind(tags, types.Definition)))
}

func TestExtract_InvalidCustomQueryYieldsNothing(t *testing.T) {
	e := NewExtractor(zerolog.Nop())
	req := Request{
		RelPath: "calc.py",
		Content: []byte(pythonSource),
		Query:   `(not_a_real_node) @name.definition.x`,
	}
	assert.Empty(t, e.Extract(context.Background(), req))
	// A second call hits the cached failure.
	assert.Empty(t, e.Extract(context.Background(), req))
}

func TestExtract_IsRestartable(t *testing.T) {
	e := NewExtractor(zerolog.Nop())
	req := Request{RelPath: "math.go", Content: []byte(goSource)}

	first := e.Extract(context.Background(), req)
	second := e.Extract(context.Background(), req)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	first[0].Name = "mutated"
	assert.NotEqual(t, "mutated", second[0].Name)
}

func TestQueryCandidates(t *testing.T) {
	assert.Equal(t, []string{"tags"}, queryCandidates(types.LevelImplementation))
	assert.Equal(t, []string{"structure", "tags"}, queryCandidates(types.LevelStructure))
	assert.Equal(t, []string{"interface", "tags"}, queryCandidates(types.LevelInterface))
}

func TestLookupQuery(t *testing.T) {
	name, data, ok := lookupQuery("go", types.LevelStructure)
	require.True(t, ok)
	assert.Equal(t, "structure", name)
	assert.NotEmpty(t, data)

	name, _, ok = lookupQuery("rust", types.LevelInterface)
	require.True(t, ok)
	assert.Equal(t, "tags", name)

	_, _, ok = lookupQuery("cobol", types.LevelStructure)
	assert.False(t, ok)
}

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"app.PY", "python", true},
		{"web/index.tsx", "tsx", true},
		{"lib.rs", "rust", true},
		{"include/x.h", "c", true},
		{"config.yml", "yaml", true},
		{"README.md", "markdown", true},
		{"docs/guide.markdown", "markdown", true},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, Supported("a.java"))
	assert.False(t, Supported("a.txt"))
}

func TestEveryEmbeddedQueryCompiles(t *testing.T) {
	for ext, lang := range extToLanguage {
		for _, level := range []types.VerbosityLevel{0, types.LevelStructure, types.LevelInterface} {
			name, data, ok := lookupQuery(lang, level)
			require.True(t, ok, "tags query missing for %s", lang)
			grammar, ok := grammarFor(lang)
			require.True(t, ok)
			e := NewExtractor(zerolog.Nop())
			_, compiled := e.query(lang, grammar, Request{RelPath: "x" + ext, Hint: level})
			assert.True(t, compiled, "query %s/%s must compile: %s", lang, name, string(data))
		}
	}
}

func TestParse(t *testing.T) {
	root, ok := Parse(context.Background(), "math.go", []byte(goSource))
	require.True(t, ok)
	assert.Equal(t, "source_file", root.Type())

	_, ok = Parse(context.Background(), "notes.txt", []byte("x"))
	assert.False(t, ok)
}

func filterByKind(tags []types.Tag, kind types.TagKind) []types.Tag {
	var result []types.Tag
	for _, tg := range tags {
		if tg.Kind == kind {
			result = append(result, tg)
		}
	}
	return result
}

func tagNames(tags []types.Tag) []string {
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.Name
	}
	return names
}

func indexByName(tags []types.Tag) map[string]types.Tag {
	m := make(map[string]types.Tag, len(tags))
	for _, tg := range tags {
		if _, ok := m[tg.Name]; !ok {
			m[tg.Name] = tg
		}
	}
	return m
}
