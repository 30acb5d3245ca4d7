package convo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SummarizeOther produces a deterministic, human-readable description of
// another live loop n of the same agent V, for use when V starts a new RAL
// while n is still active and the caller wants the new loop to carry
// concurrent-RAL context explicitly (§4.4.7).
func SummarizeOther(log *Log, viewer string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have another reason-act-loop (#%d) executing:\n\n", n)

	for _, e := range log.AllEntries() {
		c := e.Common()
		if c.Pubkey != viewer || !c.HasRal || c.Ral != n {
			continue
		}
		switch v := e.(type) {
		case *TextEntry:
			fmt.Fprintf(&b, "[text-output] %s\n", v.Content)
		case *ToolCallEntry:
			for _, call := range v.Calls {
				b.WriteString("[tool ")
				b.WriteString(call.Name)
				b.WriteString("] ")
				b.WriteString(formatToolInput(call))
				b.WriteByte('\n')
			}
		case *ToolResultEntry:
			for _, res := range v.Results {
				if line, ok := delegateResultLine(res); ok {
					b.WriteString(line)
					b.WriteByte('\n')
				}
			}
		}
	}

	return b.String()
}

func formatToolInput(call ToolCallPart) string {
	keys := call.InputOrder
	if len(keys) == 0 {
		for k := range call.Input {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := call.Input[k]
		if s, ok := v.(string); ok {
			pairs = append(pairs, fmt.Sprintf("%s=%q", k, s))
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%v", v))
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, encoded))
	}
	return strings.Join(pairs, ", ")
}

// delegateResultLine implements §4.4.7's narrow tool-result inclusion rule:
// only a "delegate" tool's structured result carrying a pendingDelegations
// map is summarized, since that's the one followup identifier an agent
// needs to track a concurrent loop it spawned.
func delegateResultLine(res ToolResultPart) (string, bool) {
	if res.Name != "delegate" || res.Output.Kind != ToolOutputJSON {
		return "", false
	}
	obj, ok := res.Output.JSON.(map[string]any)
	if !ok {
		return "", false
	}
	pending, ok := obj["pendingDelegations"].(map[string]any)
	if !ok || len(pending) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", k, pending[k]))
	}
	return "[delegate result] delegationConversationIds: " + strings.Join(pairs, ", "), true
}
