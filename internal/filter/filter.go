// Package filter decides which source entries take part in a copy.
// Rules follow rsync conventions: evaluated in order, first match wins,
// and an entry no rule matches is included.
package filter

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule is a single include or exclude rule.
type Rule struct {
	pattern  string // doublestar pattern, always slash-separated
	original string
	dirOnly  bool
	Include  bool
}

// String returns the rule in filter-file syntax.
func (r Rule) String() string {
	if r.Include {
		return "+ " + r.original
	}
	return "- " + r.original
}

// Chain holds an ordered list of filter rules.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude appends an include rule.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	r, err := compileRule(pattern)
	if err != nil {
		return err
	}
	r.Include = include
	c.rules = append(c.rules, r)
	return nil
}

// Rules returns a copy of the rules in evaluation order.
func (c *Chain) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return c == nil || len(c.rules) == 0
}

// Match returns true if relPath should be INCLUDED. relPath is relative to
// the copy root and may use the OS separator.
func (c *Chain) Match(relPath string, isDir bool) bool {
	if c.Empty() {
		return true
	}
	p := strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	for _, r := range c.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(r.pattern, p); ok {
			return r.Include
		}
	}
	return true
}

// compileRule translates an rsync-style pattern into a doublestar pattern.
// A trailing slash restricts the rule to directories; a pattern containing
// a slash is anchored at the root, anything else matches at any depth.
func compileRule(pattern string) (Rule, error) {
	r := Rule{original: pattern}
	p := strings.TrimSpace(pattern)
	if p == "" || p == "/" {
		return r, fmt.Errorf("empty filter pattern %q", pattern)
	}

	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimSuffix(p, "/")
	}

	switch {
	case strings.HasPrefix(p, "/"):
		p = strings.TrimPrefix(p, "/")
	case strings.Contains(p, "/"):
		// anchored already
	default:
		p = "**/" + p
	}

	p = path.Clean(p)
	if !doublestar.ValidatePattern(p) {
		return r, fmt.Errorf("invalid filter pattern %q", pattern)
	}
	r.pattern = p
	return r, nil
}
