package convo

import "context"

// isVisible implements §4.4.1: whether entry e belongs in the view built for
// (viewer, viewingRal).
func isVisible(rals *RalRegistry, viewer string, viewingRal int, e Entry) bool {
	c := e.Common()
	if !c.HasRal {
		return true // out-of-band: always include
	}
	if c.Pubkey == viewer {
		if c.Ral == viewingRal {
			return true // current loop
		}
		if rals.IsActive(viewer, c.Ral) {
			return false // sibling live loop of the same agent: never leak (P3)
		}
		return true // completed RAL of viewer: agent sees its own history
	}
	// Another agent's entry: only plain text with content is ever shown;
	// their tool-calls/tool-results are never visible to anyone else.
	if te, ok := e.(*TextEntry); ok {
		return te.Content != ""
	}
	return false
}

// stageEntry derives role, attribution, and content for an already-visible
// entry, without yet performing multimodal expansion or wire-format
// repair.
func stageEntry(ctx context.Context, e Entry, viewer string, namer Namer, agents KnownAgents) (staged, error) {
	switch v := e.(type) {
	case *ToolCallEntry:
		return staged{
			msg:        Message{Role: MsgAssistant, ToolCalls: v.Calls},
			isToolCall: true,
			isCall:     true,
			callIDs:    callIDsOf(v.Calls),
		}, nil
	case *ToolResultEntry:
		return staged{
			msg:        Message{Role: MsgTool, ToolResults: v.Results},
			isToolCall: true,
			isCall:     false,
			callIDs:    resultIDsOf(v.Results),
		}, nil
	case *TextEntry:
		if v.Pubkey == viewer {
			return staged{msg: Message{Role: MsgAssistant, Text: v.Content}}, nil
		}
		prefix, err := attributionPrefix(ctx, v, viewer, namer, agents)
		if err != nil {
			return staged{}, err
		}
		return staged{msg: Message{Role: MsgUser, Text: prefix + v.Content}}, nil
	default:
		return staged{}, nil
	}
}

func callIDsOf(calls []ToolCallPart) []string {
	ids := make([]string, len(calls))
	for i, c := range calls {
		ids[i] = c.ID
	}
	return ids
}

func resultIDsOf(results []ToolResultPart) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.CallID
	}
	return ids
}

// attributionPrefix implements §4.4.3. The "sender" used for rule
// evaluation is AttributedTo when the entry carries an attribution (an
// injection posted on behalf of someone else), otherwise the entry's
// posting Pubkey.
func attributionPrefix(ctx context.Context, e *TextEntry, viewer string, namer Namer, agents KnownAgents) (string, error) {
	sender := e.Pubkey
	if e.AttributedTo != "" {
		sender = e.AttributedTo
	}

	if sender == viewer {
		return "", nil
	}

	if len(e.TargetedPubkeys) > 0 && !containsPubkey(e.TargetedPubkeys, viewer) {
		senderName, err := resolveName(ctx, namer, sender)
		if err != nil {
			return "", err
		}
		var b []byte
		b = append(b, "[@"...)
		b = append(b, senderName...)
		b = append(b, " -> "...)
		for i, pk := range e.TargetedPubkeys {
			if i > 0 {
				b = append(b, ", "...)
			}
			name, err := resolveName(ctx, namer, pk)
			if err != nil {
				return "", err
			}
			b = append(b, "@"...)
			b = append(b, name...)
		}
		b = append(b, "] "...)
		return string(b), nil
	}

	if agents.IsAgentPubkey(sender) {
		name, err := resolveName(ctx, namer, sender)
		if err != nil {
			return "", err
		}
		return "[@" + name + "] ", nil
	}

	return "", nil
}

func resolveName(ctx context.Context, namer Namer, pubkey string) (string, error) {
	if namer == nil {
		return pubkey, nil
	}
	return namer.Name(ctx, pubkey)
}

func containsPubkey(list []string, pk string) bool {
	for _, p := range list {
		if p == pk {
			return true
		}
	}
	return false
}
