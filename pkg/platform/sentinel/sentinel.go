package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Slot stores return these (optionally
// wrapped) and the session store translates them into domain errors.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	// ErrNotFound: the credential slot is empty.
	ErrNotFound = errors.New("not found")
)
