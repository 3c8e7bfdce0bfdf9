package console

import "strings"

// ExecutionState tracks the lifecycle of query executions. Executing is true
// for the whole span between request dispatch and response parse completion.
// ExecutedFirstQuery is monotonic: once true it stays true regardless of
// later failures. Performance only carries meaning once ExecutedFirstQuery
// is true.
type ExecutionState struct {
	Executing          bool
	ExecutedFirstQuery bool
	Performance        string
	Err                error
}

// instructional overlay shown before the first execution
const executeHint = "Press ctrl+enter to execute this query! ☝"

// Overlay computes the output pane's overlay. Before the first execution it
// is the instructional message; after, the server's performance breakdown
// when one was captured; otherwise nothing. The overlay is independent of
// the result text.
func (s ExecutionState) Overlay() (string, bool) {
	if !s.ExecutedFirstQuery {
		return executeHint, true
	}
	if s.Performance != "" {
		return strings.Join(strings.Split(s.Performance, "; "), "\n"), true
	}
	return "", false
}
