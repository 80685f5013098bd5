// Package ids wires github.com/google/uuid for the identities the data
// model requires: every Connection and every Pool carries a UUID (§3).
package ids

import "github.com/google/uuid"

// New returns a fresh random identity string.
func New() string {
	return uuid.NewString()
}
