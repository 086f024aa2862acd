// Package ensembl defines the data-access facade the datachecks consume.
// Implementations live under internal/persistence; checks depend only on
// the interfaces and value types declared here.
package ensembl

import (
	"context"
)

// Attribute is a typed key/value annotation attached to a seq region.
// Cardinality is not enforced here; checks assert it where it matters.
type Attribute struct {
	Code  string
	Value string
}

// SeqRegion is a named genomic sequence within a coordinate system,
// with its attributes preloaded at fetch time.
type SeqRegion struct {
	ID          int64
	Name        string
	CoordSystem string
	Length      int64

	attribs map[string][]Attribute
}

// NewSeqRegion constructs a seq region with the given attributes.
func NewSeqRegion(id int64, name, coordSystem string, length int64, attribs []Attribute) *SeqRegion {
	sr := &SeqRegion{
		ID:          id,
		Name:        name,
		CoordSystem: coordSystem,
		Length:      length,
		attribs:     make(map[string][]Attribute),
	}
	for _, a := range attribs {
		sr.attribs[a.Code] = append(sr.attribs[a.Code], a)
	}
	return sr
}

// Attributes returns all attributes with the given code, in load order.
func (sr *SeqRegion) Attributes(code string) []Attribute {
	return sr.attribs[code]
}

// HasAttribute reports whether at least one attribute with the code exists.
func (sr *SeqRegion) HasAttribute(code string) bool {
	return len(sr.attribs[code]) > 0
}

// Gene is a gene feature at a toplevel seq region. Transcripts are
// attached lazily by Core.Transcripts and dropped by ReleaseTranscripts
// so that a full-genome scan holds at most one gene's children at a time.
type Gene struct {
	ID       int64
	StableID string
	Biotype  string

	transcripts []*Transcript
}

// Transcript is a child feature of a gene.
type Transcript struct {
	ID       int64
	StableID string
	Biotype  string
}

// CachedTranscripts returns the transcripts attached by Core.Transcripts,
// or nil if none have been fetched or they have been released.
func (g *Gene) CachedTranscripts() []*Transcript {
	return g.transcripts
}

// AttachTranscripts caches fetched transcripts on the gene.
func (g *Gene) AttachTranscripts(ts []*Transcript) {
	g.transcripts = ts
}

// ReleaseTranscripts drops the cached transcripts so they can be
// collected before the next gene is processed.
func (g *Gene) ReleaseTranscripts() {
	g.transcripts = nil
}

// BiotypeIndex maps object type ("gene", "transcript") and biotype name to
// the coarse biotype group. Loaded once per check run, read-only afterwards.
type BiotypeIndex map[string]map[string]string

// Group returns the biotype group for the given object type and biotype
// name, or "undefined" when the vocabulary has no entry.
func (bi BiotypeIndex) Group(objectType, biotype string) string {
	if groups, ok := bi[objectType]; ok {
		if g, ok := groups[biotype]; ok {
			return g
		}
	}
	return "undefined"
}

// Queryer is the direct-query capability of the facade: the subset of
// sqlx a check needs for exact-cardinality counts and vocabulary joins.
// *sqlx.DB satisfies it.
type Queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Core is the data-access facade over one Ensembl core database. It pairs
// structured feature retrieval with raw query execution; checks choose per
// routine which strategy fits (queries for provable cardinality/join
// conditions, traversal for multi-table relational judgments).
type Core interface {
	Queryer

	// SeqRegions returns the seq regions of the named coordinate system at
	// the given assembly version, attributes preloaded. An empty version
	// matches any version of the coordinate system.
	SeqRegions(ctx context.Context, coordSystem, version string) ([]*SeqRegion, error)

	// ToplevelGenes returns every gene on a toplevel seq region, scoped to
	// the facade's species. Transcripts are not loaded.
	ToplevelGenes(ctx context.Context) ([]*Gene, error)

	// Transcripts fetches and attaches the gene's transcripts.
	Transcripts(ctx context.Context, g *Gene) ([]*Transcript, error)

	// BiotypeIndex loads the biotype vocabulary applicable to the facade's
	// database type, keyed by object type and biotype name.
	BiotypeIndex(ctx context.Context) (BiotypeIndex, error)

	// MetaValue returns the species-scoped meta value for a key, or the
	// empty string when the key is absent.
	MetaValue(ctx context.Context, key string) (string, error)

	// SpeciesID is the species scope applied to all structured queries.
	SpeciesID() int64

	// DBType is the database type tag ("core", "otherfeatures", ...).
	DBType() string
}
