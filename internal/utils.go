package internal

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

// tryParseNumber returns an int64 or float64 when s is numeric, otherwise s itself.
func tryParseNumber(s string) any {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

var falseTokens = map[string]struct{}{
	"false": {}, "FALSE": {}, "False": {},
	"no": {}, "No": {}, "NO": {},
	"n": {},
}

// normalizeBool maps a search token to a boolean. Only the fixed false set maps
// to false; every other token is true.
func normalizeBool(token string) bool {
	_, ok := falseTokens[strings.TrimSpace(token)]
	return !ok
}

// floatPrefixPattern anchors the input at the start of the stored value and
// requires the match to stop at a decimal point or the end, so "12" matches
// "12" and "12.5" but not "120".
func floatPrefixPattern(input string) string {
	return "^" + regexp.QuoteMeta(strings.TrimSpace(input)) + `(\.|$)`
}

// pageWindow converts a 1-based page number into LIMIT/OFFSET. Pages past the
// largest representable offset clamp to it and so come back empty.
func pageWindow(page, pageSize int) (limit, offset int, err error) {
	if page < 1 {
		return 0, 0, eav.NewValidationError(eav.ErrCodeInvalidPage, "page", "page must be 1 or greater").
			WithDetail("page", page)
	}
	if pageSize <= 0 {
		pageSize = eav.DefaultConfig().Query.PageSize
	}
	if page-1 > math.MaxInt/pageSize {
		return pageSize, math.MaxInt, nil
	}
	return pageSize, (page - 1) * pageSize, nil
}

// paginate slices an in-memory list into the window for page.
func paginate[T any](items []T, page, pageSize int) ([]T, error) {
	limit, offset, err := pageWindow(page, pageSize)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset >= len(items) {
		return []T{}, nil
	}
	end := offset + min(limit, len(items)-offset)
	return items[offset:end], nil
}
