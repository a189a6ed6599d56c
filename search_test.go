package eav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SearchRequest
	}{
		{
			name:  "greater than",
			input: "weight > 12",
			want:  SearchRequest{Kind: SearchKindComparison, Attribute: "weight", Operator: CompareGreaterThan, Value: "12"},
		},
		{
			name:  "less than keeps non numeric value for the store to reject",
			input: "weight < heavy",
			want:  SearchRequest{Kind: SearchKindComparison, Attribute: "weight", Operator: CompareLessThan, Value: "heavy"},
		},
		{
			name:  "attribute equality",
			input: "active: no",
			want:  SearchRequest{Kind: SearchKindValue, Attribute: "active", Value: "no"},
		},
		{
			name:  "attribute equality without space",
			input: "colour:red",
			want:  SearchRequest{Kind: SearchKindValue, Attribute: "colour", Value: "red"},
		},
		{
			name:  "bang disables extended search",
			input: "!^Dune",
			want:  SearchRequest{Kind: SearchKindName, Pattern: "^Dune"},
		},
		{
			name:  "plain pattern is extended",
			input: "  dune.*messiah ",
			want:  SearchRequest{Kind: SearchKindName, Pattern: "dune.*messiah", Extended: true},
		},
		{
			name:  "equals sign is not an operator",
			input: "weight = 12",
			want:  SearchRequest{Kind: SearchKindName, Pattern: "weight = 12", Extended: true},
		},
		{
			name:  "empty input",
			input: "",
			want:  SearchRequest{Kind: SearchKindName, Pattern: "", Extended: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSearch(tt.input))
		})
	}
}
