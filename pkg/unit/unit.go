// Package unit defines the text processing unit abstraction shared by local
// rewrite rules and remote model calls.
package unit

import "context"

// Unit is a named, stateless text-to-text operation. Implementations hold
// no mutable state and are safe to invoke concurrently from multiple
// pipeline executions.
type Unit interface {
	// Transform rewrites the input text. It may fail with a *Error.
	Transform(ctx context.Context, input string) (string, error)

	// ID returns the unit's stable identifier.
	ID() string

	// Name returns the unit's display name.
	Name() string
}

// Provenance records where a remote transformation came from.
type Provenance struct {
	Provider    string
	Model       string
	Instruction string
}

// Provenancer is implemented by units that can attribute their output to a
// remote provider. The pipeline copies this metadata into stage results.
type Provenancer interface {
	Provenance() Provenance
}
