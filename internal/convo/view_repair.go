package convo

// repair walks the staged, visibility-filtered sequence and enforces the
// two wire-format adjacency invariants (§4.4.5):
//
//	A1: every tool-call is immediately followed by its tool-result.
//	A2: every tool-call has a matching tool-result somewhere in the output.
//
// Non-tool entries are deferred to a holding buffer while any tool-call
// remains unresolved, and flushed once the pending set drains. Tool-call and
// tool-result entries themselves are never deferred — they always emit at
// the point the walk reaches them, which is how a stray tool-result (no
// matching call) ends up "emitted as-is" per §7's UnknownToolCallId policy.
//
// Grounded on internal/agent/loop_history.go's sanitizeHistory, generalized
// from its drop/synthesize-only behavior into the spec's defer-then-flush
// holding buffer.
func repair(list []staged) []Message {
	var out []Message
	var holding []Message
	var pendingOrder []string
	pendingNames := map[string]string{}

	flush := func() {
		if len(holding) == 0 {
			return
		}
		out = append(out, holding...)
		holding = nil
	}

	removePending := func(id string) {
		if _, ok := pendingNames[id]; !ok {
			return
		}
		delete(pendingNames, id)
		for i, pid := range pendingOrder {
			if pid == id {
				pendingOrder = append(pendingOrder[:i], pendingOrder[i+1:]...)
				break
			}
		}
	}

	for _, s := range list {
		switch {
		case s.isToolCall && s.isCall:
			out = append(out, s.msg)
			for _, tc := range s.msg.ToolCalls {
				if _, exists := pendingNames[tc.ID]; !exists {
					pendingOrder = append(pendingOrder, tc.ID)
				}
				pendingNames[tc.ID] = tc.Name
			}
		case s.isToolCall && !s.isCall:
			out = append(out, s.msg)
			for _, tr := range s.msg.ToolResults {
				removePending(tr.CallID)
			}
			if len(pendingOrder) == 0 {
				flush()
			}
		default:
			if len(pendingOrder) > 0 {
				holding = append(holding, s.msg)
			} else {
				out = append(out, s.msg)
			}
		}
	}

	for _, id := range pendingOrder {
		out = append(out, Message{
			Role: MsgTool,
			ToolResults: []ToolResultPart{{
				CallID: id,
				Name:   pendingNames[id],
				Output: ToolOutput{Kind: ToolOutputText, Text: "tool call " + id + " was " + InterruptedMarker},
			}},
		})
	}
	flush()

	return out
}
