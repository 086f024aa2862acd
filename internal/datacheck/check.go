// Package datacheck defines the check-execution contract: how a check
// declares its metadata, decides whether to run, and emits assertions.
package datacheck

import (
	"context"

	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

// Metadata is the static description of a check, consumed by the registry
// and scheduler for selection. It never influences the check's own logic.
type Metadata struct {
	// Name identifies the check uniquely within a registry.
	Name string
	// Description is a one-line human summary.
	Description string
	// Groups are applicability tags ("core", "assembly", ...).
	Groups []string
	// DBTypes are the database type tags the check supports.
	DBTypes []string
	// Tables lists the tables the check reads.
	Tables []string
}

// SkipResult is the outcome of a check's pre-validation skip evaluation.
// A skip is a legitimate, reported reason why validation did not run, not
// an error.
type SkipResult struct {
	Skip   bool
	Reason string
}

// Check is one datacheck. Skip runs before Validate and must be cheap
// relative to full validation. Validate records every assertion outcome
// to the sink; it returns an error only on collaborator failure (store
// unreachable, malformed query), never for a failed assertion.
type Check interface {
	Metadata() Metadata
	Skip(ctx context.Context, core ensembl.Core) (SkipResult, error)
	Validate(ctx context.Context, core ensembl.Core, sink report.Sink) error
}

// HasGroup reports whether the metadata carries the given group tag.
func (m Metadata) HasGroup(group string) bool {
	for _, g := range m.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// SupportsDBType reports whether the metadata lists the given database
// type tag.
func (m Metadata) SupportsDBType(dbType string) bool {
	for _, t := range m.DBTypes {
		if t == dbType {
			return true
		}
	}
	return false
}
