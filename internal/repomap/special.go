// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"path"
	"path/filepath"
	"strings"
)

// rootImportantFiles lists repository-root files that orient a reader:
// docs, manifests, build and CI configuration.
var rootImportantFiles = map[string]bool{
	// Version control
	".gitignore":     true,
	".gitattributes": true,
	// Documentation
	"README":           true,
	"README.md":        true,
	"README.txt":       true,
	"README.rst":       true,
	"CONTRIBUTING":     true,
	"CONTRIBUTING.md":  true,
	"CONTRIBUTING.txt": true,
	"CONTRIBUTING.rst": true,
	"LICENSE":          true,
	"LICENSE.md":       true,
	"LICENSE.txt":      true,
	"CHANGELOG":        true,
	"CHANGELOG.md":     true,
	"CHANGELOG.txt":    true,
	"CHANGELOG.rst":    true,
	"SECURITY":         true,
	"SECURITY.md":      true,
	"SECURITY.txt":     true,
	"CODEOWNERS":       true,
	// Package management
	"requirements.txt": true,
	"Pipfile":          true,
	"pyproject.toml":   true,
	"setup.py":         true,
	"setup.cfg":        true,
	"package.json":     true,
	"Gemfile":          true,
	"composer.json":    true,
	"pom.xml":          true,
	"build.gradle":     true,
	"build.gradle.kts": true,
	"build.sbt":        true,
	"go.mod":           true,
	"Cargo.toml":       true,
	"mix.exs":          true,
	"rebar.config":     true,
	"project.clj":      true,
	"Podfile":          true,
	"Cartfile":         true,
	"dub.json":         true,
	"dub.sdl":          true,
	// Configuration
	".env.example":             true,
	".editorconfig":            true,
	"tsconfig.json":            true,
	"jsconfig.json":            true,
	".babelrc":                 true,
	"babel.config.js":          true,
	".eslintrc":                true,
	".prettierrc":              true,
	".stylelintrc":             true,
	"tslint.json":              true,
	".pylintrc":                true,
	".flake8":                  true,
	".rubocop.yml":             true,
	".scalafmt.conf":           true,
	".dockerignore":            true,
	".gitpod.yml":              true,
	"sonar-project.properties": true,
	"renovate.json":            true,
	"dependabot.yml":           true,
	".pre-commit-config.yaml":  true,
	"mypy.ini":                 true,
	"tox.ini":                  true,
	".yamllint":                true,
	"pyrightconfig.json":       true,
	// Build
	"Makefile":          true,
	"CMakeLists.txt":    true,
	"webpack.config.js": true,
	"rollup.config.js":  true,
	"parcel.config.js":  true,
	"gulpfile.js":       true,
	"Gruntfile.js":      true,
	"build.xml":         true,
	"build.boot":        true,
	"project.json":      true,
	"build.cake":        true,
	"MANIFEST.in":       true,
	// Testing
	"pytest.ini":     true,
	"phpunit.xml":    true,
	"karma.conf.js":  true,
	"jest.config.js": true,
	"cypress.json":   true,
	// Containers and deployment
	"Dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
	"Vagrantfile":         true,
	"Procfile":            true,
	"app.yaml":            true,
	"serverless.yml":      true,
	"netlify.toml":        true,
	"vercel.json":         true,
	".travis.yml":         true,
	"azure-pipelines.yml": true,
	"Jenkinsfile":         true,
	".codeclimate.yml":    true,
	"codecov.yml":         true,
	"mkdocs.yml":          true,
	"_config.yml":         true,
	"book.toml":           true,
	"readthedocs.yml":     true,
	".readthedocs.yaml":   true,
	".npmrc":              true,
	".yarnrc":             true,
	".isort.cfg":          true,
	".markdownlint.json":  true,
	".markdownlint.yaml":  true,
	"ruff.toml":           true,
	".bandit":             true,
	".secrets.baseline":   true,
}

// isImportant reports whether relPath names a root-level important file
// or a GitHub Actions workflow.
func isImportant(relPath string) bool {
	p := path.Clean(filepath.ToSlash(relPath))
	dir, name := path.Split(p)
	if strings.TrimSuffix(dir, "/") == ".github/workflows" && strings.HasSuffix(name, ".yml") {
		return true
	}
	return rootImportantFiles[p]
}

// filterImportant returns the important paths of relPaths, in order.
func filterImportant(relPaths []string) []string {
	var out []string
	for _, p := range relPaths {
		if isImportant(p) {
			out = append(out, p)
		}
	}
	return out
}
