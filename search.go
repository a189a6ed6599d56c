package eav

import (
	"regexp"
	"strings"
)

// SearchKind identifies which Store search a SearchRequest maps to.
type SearchKind string

const (
	SearchKindName       SearchKind = "name"
	SearchKindValue      SearchKind = "value"
	SearchKindComparison SearchKind = "comparison"
)

// SearchRequest is the parsed form of a search-bar query.
type SearchRequest struct {
	Kind      SearchKind      `json:"kind"`
	Pattern   string          `json:"pattern,omitempty"`
	Extended  bool            `json:"extended,omitempty"`
	Attribute string          `json:"attribute,omitempty"`
	Value     string          `json:"value,omitempty"`
	Operator  CompareOperator `json:"operator,omitempty"`
}

var (
	comparisonQuery = regexp.MustCompile(`^([A-Za-z0-9_]+) ([<>]) (.*)$`)
	valueQuery      = regexp.MustCompile(`^([A-Za-z0-9_]+):\s*(.*)$`)
)

// ParseSearch interprets free text typed into a search bar:
//
//	attr > 10      numeric comparison (also <)
//	attr: value    attribute value equality
//	!pattern       name-only regular expression search
//	pattern        name search extended to the alternate title attribute
//
// The comparison value is not checked here; the store rejects non-numeric
// input before querying.
func ParseSearch(input string) SearchRequest {
	input = strings.TrimSpace(input)

	if m := comparisonQuery.FindStringSubmatch(input); m != nil {
		return SearchRequest{
			Kind:      SearchKindComparison,
			Attribute: m[1],
			Operator:  CompareOperator(m[2]),
			Value:     strings.TrimSpace(m[3]),
		}
	}

	if m := valueQuery.FindStringSubmatch(input); m != nil {
		return SearchRequest{
			Kind:      SearchKindValue,
			Attribute: m[1],
			Value:     strings.TrimSpace(m[2]),
		}
	}

	if rest, ok := strings.CutPrefix(input, "!"); ok {
		return SearchRequest{Kind: SearchKindName, Pattern: rest}
	}

	return SearchRequest{Kind: SearchKindName, Pattern: input, Extended: true}
}
