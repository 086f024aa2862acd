package checks

import (
	"github.com/EbiArnie/ensembl-datacheck/internal/datacheck"
)

// DefaultRegistry returns a registry with every shipped check registered.
func DefaultRegistry() *datacheck.Registry {
	registry := datacheck.NewRegistry()
	registry.MustRegister(ChromosomeAnnotation{})
	registry.MustRegister(GeneBiotypes{})
	return registry
}
