// Package loader reads SQL input files and their optional YAML frontmatter.
// Frontmatter lets a file pin the dialect and embed a schema catalog so the
// file analyzes the same way everywhere:
//
//	/*---
//	dialect: postgres
//	schema:
//	  core.users: [id, name]
//	---*/
//	SELECT u.id FROM core.users AS u
package loader

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// Frontmatter holds per-file analysis settings.
// Unknown fields cause parse errors.
type Frontmatter struct {
	Dialect string              `yaml:"dialect"`
	Schema  map[string][]string `yaml:"schema"`
}

// Input is one loaded SQL input with its frontmatter applied.
type Input struct {
	Path    string
	SQL     string
	Dialect string           // from frontmatter, empty when absent
	Schema  analyzer.Catalog // from frontmatter, nil when absent
}

// frontmatterPattern matches a leading /*--- ... ---*/ block.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

var knownFields = map[string]bool{
	"dialect": true,
	"schema":  true,
}

// ExtractFrontmatter splits content into its frontmatter and the remaining
// SQL. Content without a frontmatter block comes back unchanged with a nil
// Frontmatter.
func ExtractFrontmatter(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		return nil, content, nil
	}

	sql := strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(matches[1]), &raw); err != nil {
		return nil, "", &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	for field := range raw {
		if !knownFields[field] {
			return nil, "", &UnknownFieldError{Field: field}
		}
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, "", &ParseError{Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}
	}
	return &fm, sql, nil
}

// ReadFile loads a SQL file, extracting frontmatter when present.
func ReadFile(path string) (*Input, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path comes from a user flag
	if err != nil {
		return nil, fmt.Errorf("failed to read SQL file: %w", err)
	}
	return Parse(path, string(content))
}

// Parse extracts frontmatter from content that came from somewhere other
// than a file, such as stdin or a flag. Path labels the source in errors and
// may be empty.
func Parse(path, content string) (*Input, error) {
	fm, sql, err := ExtractFrontmatter(content)
	if err != nil {
		switch e := err.(type) {
		case *ParseError:
			e.File = path
		case *UnknownFieldError:
			e.File = path
		}
		return nil, err
	}

	in := &Input{Path: path, SQL: sql}
	if fm != nil {
		in.Dialect = fm.Dialect
		if len(fm.Schema) > 0 {
			in.Schema = make(analyzer.Catalog, len(fm.Schema))
			for table, cols := range fm.Schema {
				in.Schema[table] = cols
			}
		}
	}
	return in, nil
}

// ParseError reports malformed frontmatter.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError reports a frontmatter field this tool does not accept.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter (expected dialect, schema)", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
