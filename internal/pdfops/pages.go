package pdfops

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseRanges parses a 1-indexed page expression like "1-5,8,11-13" into a
// sorted, deduplicated page list bounded by pageCount.
func ParseRanges(expr string, pageCount int) ([]int, error) {
	pages, err := parseTokens(expr, pageCount)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(pages))
	out := pages[:0]
	for _, p := range pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out, nil
}

// ParseSequence parses the same expression shape but keeps the caller's
// order and duplicates, for operations where page order is the point.
func ParseSequence(expr string, pageCount int) ([]int, error) {
	return parseTokens(expr, pageCount)
}

func parseTokens(expr string, pageCount int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty page expression")
	}

	var pages []int
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("empty token in page expression %q", expr)
		}

		lo, hi := token, token
		if idx := strings.Index(token, "-"); idx >= 0 {
			lo, hi = strings.TrimSpace(token[:idx]), strings.TrimSpace(token[idx+1:])
		}
		from, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q", token)
		}
		to, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q", token)
		}
		if from < 1 || to < from {
			return nil, fmt.Errorf("invalid page range %q", token)
		}
		if to > pageCount {
			return nil, fmt.Errorf("page range %q exceeds page count %d", token, pageCount)
		}
		for p := from; p <= to; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// runTokens compresses a page list into selection tokens, folding
// consecutive runs into "a-b" spans.
func runTokens(pages []int) []string {
	if len(pages) == 0 {
		return nil
	}
	var tokens []string
	start, prev := pages[0], pages[0]
	flush := func() {
		if start == prev {
			tokens = append(tokens, strconv.Itoa(start))
		} else {
			tokens = append(tokens, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return tokens
}

// pageTokens emits one token per page, preserving order and duplicates.
func pageTokens(pages []int) []string {
	tokens := make([]string, len(pages))
	for i, p := range pages {
		tokens[i] = strconv.Itoa(p)
	}
	return tokens
}
