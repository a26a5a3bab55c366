package model

// FinishReason is the reason a model stopped generating, normalized across
// providers by the model-call adapter before it reaches this core.
type FinishReason string

const (
	// FinishReasonStop indicates the model reached a natural stopping point.
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength indicates the output was truncated by the output limit.
	FinishReasonLength FinishReason = "length"
	// FinishReasonMaxTokens is the Anthropic-style spelling of a length cutoff.
	FinishReasonMaxTokens FinishReason = "max_tokens"
	// FinishReasonToolCalls indicates the model stopped to call tools.
	FinishReasonToolCalls FinishReason = "tool_calls"
	// FinishReasonFunctionCall is the legacy spelling of a tool-call stop.
	FinishReasonFunctionCall FinishReason = "function_call"
	// FinishReasonContentFilter indicates the output was cut by a safety filter.
	FinishReasonContentFilter FinishReason = "content_filter"
	// FinishReasonError indicates the provider reported an error mid-generation.
	FinishReasonError FinishReason = "error"
	// FinishReasonUnknown indicates the adapter could not classify the stop.
	FinishReasonUnknown FinishReason = "unknown"
)

// ParseFinishReason maps a provider-reported reason string onto the
// normalized set. Empty and unrecognized reasons classify as unknown.
func ParseFinishReason(s string) FinishReason {
	switch FinishReason(s) {
	case FinishReasonStop, FinishReasonLength, FinishReasonMaxTokens,
		FinishReasonToolCalls, FinishReasonFunctionCall,
		FinishReasonContentFilter, FinishReasonError:
		return FinishReason(s)
	default:
		return FinishReasonUnknown
	}
}

// IsTruncation reports whether the reason indicates the output was cut off
// by a length limit. Only truncation reasons ever trigger a continuation:
// stop, tool/function calls, content filters, errors, unknown, and absent
// reasons never do.
func (r FinishReason) IsTruncation() bool {
	return r == FinishReasonLength || r == FinishReasonMaxTokens
}
