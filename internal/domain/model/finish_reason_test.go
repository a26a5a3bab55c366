package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinishReasonIsTruncation(t *testing.T) {
	truncating := []FinishReason{FinishReasonLength, FinishReasonMaxTokens}
	for _, r := range truncating {
		assert.True(t, r.IsTruncation(), "reason %q", r)
	}

	terminal := []FinishReason{
		FinishReasonStop,
		FinishReasonToolCalls,
		FinishReasonFunctionCall,
		FinishReasonContentFilter,
		FinishReasonError,
		FinishReasonUnknown,
		FinishReason(""),
	}
	for _, r := range terminal {
		assert.False(t, r.IsTruncation(), "reason %q", r)
	}
}

func TestParseFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want FinishReason
	}{
		{"stop", FinishReasonStop},
		{"length", FinishReasonLength},
		{"max_tokens", FinishReasonMaxTokens},
		{"tool_calls", FinishReasonToolCalls},
		{"function_call", FinishReasonFunctionCall},
		{"content_filter", FinishReasonContentFilter},
		{"error", FinishReasonError},
		{"", FinishReasonUnknown},
		{"STOP", FinishReasonUnknown},
		{"end_turn", FinishReasonUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFinishReason(tt.in), "input %q", tt.in)
	}
}
