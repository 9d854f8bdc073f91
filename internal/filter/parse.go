package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile appends the rules in the file at path to the chain.
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	if err := c.Parse(f); err != nil {
		return fmt.Errorf("filter file %s: %w", path, err)
	}
	return nil
}

// Parse reads one rule per line. Lines are "+ PATTERN" or "include PATTERN"
// for includes, "- PATTERN" or "exclude PATTERN" for excludes; a bare
// pattern is an exclude. Blank lines and lines starting with # are ignored.
func (c *Chain) Parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		include, pattern := splitRule(line)
		if err := c.add(pattern, include); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	return sc.Err()
}

func splitRule(line string) (include bool, pattern string) {
	for _, p := range []struct {
		prefix  string
		include bool
	}{
		{"+ ", true},
		{"- ", false},
		{"include ", true},
		{"exclude ", false},
	} {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.include, strings.TrimSpace(rest)
		}
	}
	return false, line
}
