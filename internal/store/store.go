package store

import (
	"context"
	"errors"

	"github.com/riskgate/riskgate/internal/rule"
)

// ErrStoreUnavailable marks a transient connectivity failure against the
// external store. A reload that fails with it leaves the previously
// active snapshot untouched.
var ErrStoreUnavailable = errors.New("rule store unavailable")

// RuleStore reads the active rule set from the shared external store.
type RuleStore interface {
	// LoadActive resolves the full active rule set in one round trip and
	// returns it as an immutable snapshot. Individual malformed rule
	// bodies are skipped; only a store-level failure returns an error.
	LoadActive(ctx context.Context) (*rule.Snapshot, error)
}
