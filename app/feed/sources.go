package feed

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"
	"slices"
	"strings"
)

// SourceList reads the flat list of feed URLs. The file is re-read on every
// Load so edits take effect on the next cycle.
type SourceList struct {
	path string
}

func NewSourceList(path string) *SourceList {
	return &SourceList{path: path}
}

func (s *SourceList) Load() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source list: %w", err)
	}
	defer f.Close()

	urls, err := ParseSources(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read source list %s: %w", s.path, err)
	}
	return urls, nil
}

// ParseSources returns the absolute http(s) URLs in r, one per line, in order
// and without duplicates. Blank and non-URL lines are ignored.
func ParseSources(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !isSourceURL(line) || seen[line] {
			continue
		}
		seen[line] = true
		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

func isSourceURL(line string) bool {
	if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
		return false
	}
	u, err := url.Parse(line)
	return err == nil && u.Host != ""
}

// Sample returns n sources chosen at random, kept in list order. n <= 0 or
// n >= len(urls) returns every source.
func Sample(urls []string, n int, rng *rand.Rand) []string {
	if n <= 0 || n >= len(urls) {
		return slices.Clone(urls)
	}

	picked := rng.Perm(len(urls))[:n]
	slices.Sort(picked)

	sampled := make([]string, 0, n)
	for _, i := range picked {
		sampled = append(sampled, urls[i])
	}
	return sampled
}
