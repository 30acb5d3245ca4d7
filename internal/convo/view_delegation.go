package convo

import "strconv"

// delegationFoldKey identifies the (agent, ral) pair a delegation-completion
// entry belongs to.
func delegationFoldKey(pubkey string, ral int) string {
	return pubkey + "\x00" + strconv.Itoa(ral)
}

// computeDelegationFold scans the whole log (not just the windowed portion
// a delta view walks) and records, per (agent, ral), the index of the
// latest delegation-completion text entry. Only that index survives
// folding; earlier copies are skipped during the view walk (§4.4.6).
func computeDelegationFold(log *Log) map[string]int {
	fold := make(map[string]int)
	for idx, e := range log.AllEntries() {
		te, ok := e.(*TextEntry)
		if !ok || !te.HasRal || !te.IsDelegationCompletion() {
			continue
		}
		// Ascending idx order means the last write for a key is the latest.
		fold[delegationFoldKey(te.Pubkey, te.Ral)] = idx
	}
	return fold
}

// foldedOut reports whether e at idx is a superseded delegation-completion
// copy that must be skipped entirely, regardless of visibility.
func foldedOut(fold map[string]int, idx int, e Entry) bool {
	te, ok := e.(*TextEntry)
	if !ok || !te.HasRal || !te.IsDelegationCompletion() {
		return false
	}
	key := delegationFoldKey(te.Pubkey, te.Ral)
	latest, ok := fold[key]
	return ok && idx != latest
}
