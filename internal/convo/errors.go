package convo

import "errors"

// ErrNotLoaded is the value a Store operation panics with when invoked
// before Load (§7 StoreNotLoaded) — a programming error, not a runtime
// condition a caller retries through.
var ErrNotLoaded = errors.New("convo: store not loaded")

// ErrDiskWrite wraps a failure persisting a store to disk (§7
// DiskWriteFailure). Callers decide whether to retry.
var ErrDiskWrite = errors.New("convo: failed to write conversation file")

// invariantViolation panics with msg, marking a programming error (§7
// InvariantViolation) that callers are not expected to branch on. No
// operation in this package calls it: the Store, Log and RalRegistry do not
// check for negative RAL numbers or empty pubkeys.
func invariantViolation(msg string) {
	panic("convo: invariant violation: " + msg)
}
