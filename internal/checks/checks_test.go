package checks

import (
	"context"
	"fmt"
	"testing"

	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

// fakeCore is a scriptable ensembl.Core for check tests. Direct queries
// are answered from the rankCounts and invalidBiotypes tables based on
// the query arguments.
type fakeCore struct {
	regions         map[string][]*ensembl.SeqRegion
	rankCounts      map[int64]int
	invalidBiotypes map[string][]string
	genes           []*ensembl.Gene
	transcripts     map[int64][]*ensembl.Transcript
	index           ensembl.BiotypeIndex
	meta            map[string]string
	dbType          string

	queriedVersions []string
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		regions:         make(map[string][]*ensembl.SeqRegion),
		rankCounts:      make(map[int64]int),
		invalidBiotypes: make(map[string][]string),
		transcripts:     make(map[int64][]*ensembl.Transcript),
		index:           make(ensembl.BiotypeIndex),
		meta:            make(map[string]string),
		dbType:          "core",
	}
}

func (f *fakeCore) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	count, ok := dest.(*int)
	if !ok {
		return fmt.Errorf("unexpected GetContext dest %T", dest)
	}
	id, ok := args[0].(int64)
	if !ok {
		return fmt.Errorf("unexpected GetContext arg %T", args[0])
	}
	*count = f.rankCounts[id]
	return nil
}

func (f *fakeCore) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	out, ok := dest.(*[]string)
	if !ok {
		return fmt.Errorf("unexpected SelectContext dest %T", dest)
	}
	objectType, ok := args[0].(string)
	if !ok {
		return fmt.Errorf("unexpected SelectContext arg %T", args[0])
	}
	*out = f.invalidBiotypes[objectType]
	return nil
}

func (f *fakeCore) SeqRegions(ctx context.Context, coordSystem, version string) ([]*ensembl.SeqRegion, error) {
	f.queriedVersions = append(f.queriedVersions, version)
	return f.regions[coordSystem], nil
}

func (f *fakeCore) ToplevelGenes(ctx context.Context) ([]*ensembl.Gene, error) {
	return f.genes, nil
}

func (f *fakeCore) Transcripts(ctx context.Context, g *ensembl.Gene) ([]*ensembl.Transcript, error) {
	ts := f.transcripts[g.ID]
	g.AttachTranscripts(ts)
	return ts, nil
}

func (f *fakeCore) BiotypeIndex(ctx context.Context) (ensembl.BiotypeIndex, error) {
	return f.index, nil
}

func (f *fakeCore) MetaValue(ctx context.Context, key string) (string, error) {
	return f.meta[key], nil
}

func (f *fakeCore) SpeciesID() int64 { return 1 }
func (f *fakeCore) DBType() string   { return f.dbType }

// findAssertion returns the first recorded assertion whose description
// matches, failing the test when absent.
func findAssertion(t *testing.T, c *report.Collector, description string) report.Assertion {
	t.Helper()
	for _, a := range c.Assertions() {
		if a.Description == description {
			return a
		}
	}
	t.Fatalf("no assertion recorded with description %q; got %+v", description, c.Assertions())
	return report.Assertion{}
}

func hasAssertion(c *report.Collector, description string) bool {
	for _, a := range c.Assertions() {
		if a.Description == description {
			return true
		}
	}
	return false
}
