package pdfops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name      string
		expr      string
		pageCount int
		want      []int
		wantErr   bool
	}{
		{name: "single page", expr: "3", pageCount: 10, want: []int{3}},
		{name: "simple range", expr: "1-4", pageCount: 10, want: []int{1, 2, 3, 4}},
		{name: "mixed", expr: "7-8,2,4-5", pageCount: 10, want: []int{2, 4, 5, 7, 8}},
		{name: "overlap dedupes", expr: "1-3,2-4", pageCount: 10, want: []int{1, 2, 3, 4}},
		{name: "whitespace", expr: " 1 - 2 , 5 ", pageCount: 10, want: []int{1, 2, 5}},
		{name: "empty", expr: "", pageCount: 10, wantErr: true},
		{name: "empty token", expr: "1,,3", pageCount: 10, wantErr: true},
		{name: "zero page", expr: "0-2", pageCount: 10, wantErr: true},
		{name: "reversed", expr: "5-2", pageCount: 10, wantErr: true},
		{name: "beyond count", expr: "9-11", pageCount: 10, wantErr: true},
		{name: "not a number", expr: "1-x", pageCount: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRanges(tt.expr, tt.pageCount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSequenceKeepsOrderAndDuplicates(t *testing.T) {
	got, err := ParseSequence("3,1-2,1", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2, 1}, got)
}

func TestRunTokens(t *testing.T) {
	assert.Nil(t, runTokens(nil))
	assert.Equal(t, []string{"4"}, runTokens([]int{4}))
	assert.Equal(t, []string{"1-3"}, runTokens([]int{1, 2, 3}))
	assert.Equal(t, []string{"1-2", "4", "6-7"}, runTokens([]int{1, 2, 4, 6, 7}))
}

func TestPageTokens(t *testing.T) {
	assert.Equal(t, []string{"3", "1", "1"}, pageTokens([]int{3, 1, 1}))
}
