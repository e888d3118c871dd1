// Package extract locates a single SQL statement in free-form generator output.
//
// Strategies run in a fixed order and the first non-empty result wins:
//
//  1. a ```yaml (or ```yml) block whose sql key holds the statement
//  2. a ```sql block
//  3. the first fenced block of any tag
//  4. when the text has no fenced block at all, lines starting at the first
//     SELECT, WITH, INSERT, UPDATE or DELETE through the first line ending in ';'
//
// Every strategy trims whitespace and strips trailing terminators.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// ErrNoSQL is wrapped by Error when no strategy yields a statement.
var ErrNoSQL = errors.New("no SQL statement found in response")

// Error holds the raw response that could not be resolved to a statement.
type Error struct {
	Response string
}

func (e *Error) Error() string {
	resp := e.Response
	if len(resp) > 200 {
		resp = resp[:200] + "..."
	}
	return fmt.Sprintf("%v: %q", ErrNoSQL, resp)
}

func (e *Error) Unwrap() error { return ErrNoSQL }

var fenceRe = regexp.MustCompile("(?s)```(.*?)```")

var statementKeywords = map[string]bool{
	"SELECT": true,
	"WITH":   true,
	"INSERT": true,
	"UPDATE": true,
	"DELETE": true,
}

// knownTags may share the opening line with the start of the body.
var knownTags = map[string]bool{
	"sql":  true,
	"yaml": true,
	"yml":  true,
}

type block struct {
	tag  string
	body string
}

func fencedBlocks(response string) []block {
	matches := fenceRe.FindAllStringSubmatch(response, -1)
	blocks := make([]block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, splitFence(m[1]))
	}
	return blocks
}

// splitFence separates the info string from the body of a fenced block.
// A word alone on the opening line is a tag unless it is a statement keyword.
// A known tag followed by more text keeps that text as the start of the body.
// Anything else on the opening line belongs to the body.
func splitFence(content string) block {
	header, rest, multiline := strings.Cut(content, "\n")
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return block{body: rest}
	}

	first := fields[0]
	tag := strings.ToLower(first)
	if len(fields) == 1 && (multiline || knownTags[tag]) && !statementKeywords[strings.ToUpper(first)] {
		return block{tag: tag, body: rest}
	}
	if knownTags[tag] {
		inline := strings.TrimLeft(strings.TrimSpace(header)[len(first):], " \t")
		if multiline {
			inline += "\n" + rest
		}
		return block{tag: tag, body: inline}
	}
	return block{body: content}
}

// SQL returns the statement found by the first successful strategy.
func SQL(response string) (string, error) {
	if stmt := FromYAMLBlock(response); stmt != "" {
		return stmt, nil
	}
	if stmt := FromSQLBlock(response); stmt != "" {
		return stmt, nil
	}
	if stmt := FromAnyBlock(response); stmt != "" {
		return stmt, nil
	}
	if len(fencedBlocks(response)) == 0 {
		if stmt := FromKeywordLines(response); stmt != "" {
			return stmt, nil
		}
	}
	return "", &Error{Response: response}
}

// FromYAMLBlock parses ```yaml blocks and returns the first non-empty sql value.
// Blocks that fail to parse are skipped.
func FromYAMLBlock(response string) string {
	for _, b := range fencedBlocks(response) {
		if b.tag != "yaml" && b.tag != "yml" {
			continue
		}
		var doc struct {
			SQL string `yaml:"sql"`
		}
		if err := yaml.Unmarshal([]byte(b.body), &doc); err != nil {
			continue
		}
		if stmt := core.TrimTerminators(doc.SQL); stmt != "" {
			return stmt
		}
	}
	return ""
}

// FromSQLBlock returns the contents of the first ```sql block.
func FromSQLBlock(response string) string {
	for _, b := range fencedBlocks(response) {
		if b.tag == "sql" {
			return core.TrimTerminators(b.body)
		}
	}
	return ""
}

// FromAnyBlock returns the contents of the first fenced block, whatever its tag.
func FromAnyBlock(response string) string {
	blocks := fencedBlocks(response)
	if len(blocks) == 0 {
		return ""
	}
	return core.TrimTerminators(blocks[0].body)
}

// FromKeywordLines collects lines from the first one led by a statement keyword
// up to and including the first line ending in ';', joined with single spaces.
func FromKeywordLines(response string) string {
	var collected []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(collected) == 0 {
			fields := strings.Fields(trimmed)
			if len(fields) == 0 || !statementKeywords[strings.ToUpper(fields[0])] {
				continue
			}
		}
		if trimmed != "" {
			collected = append(collected, trimmed)
		}
		if strings.HasSuffix(trimmed, ";") {
			break
		}
	}
	return core.TrimTerminators(strings.Join(collected, " "))
}
