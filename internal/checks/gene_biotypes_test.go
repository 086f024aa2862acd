package checks

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

func biotypeVocabulary() ensembl.BiotypeIndex {
	return ensembl.BiotypeIndex{
		"gene": {
			"protein_coding":         "coding",
			"pseudogene":             "pseudogene",
			"polymorphic_pseudogene": "pseudogene",
			"misc_RNA":               "mnoncoding",
			"TEC":                    "undefined",
		},
		"transcript": {
			"protein_coding":         "coding",
			"pseudogene":             "pseudogene",
			"polymorphic_pseudogene": "pseudogene",
			"misc_RNA":               "mnoncoding",
		},
	}
}

func addGene(core *fakeCore, id int64, stableID, biotype string, transcriptBiotypes ...string) {
	core.genes = append(core.genes, &ensembl.Gene{ID: id, StableID: stableID, Biotype: biotype})
	for i, tb := range transcriptBiotypes {
		core.transcripts[id] = append(core.transcripts[id], &ensembl.Transcript{
			ID:      id*100 + int64(i),
			Biotype: tb,
		})
	}
}

func TestGeneBiotypesMetadata(t *testing.T) {
	meta := GeneBiotypes{}.Metadata()
	assert.Equal(t, "GeneBiotypes", meta.Name)
	assert.True(t, meta.HasGroup("genes"))
	assert.Contains(t, meta.Tables, "biotype")
}

func TestGeneBiotypesNeverSkips(t *testing.T) {
	skip, err := GeneBiotypes{}.Skip(context.Background(), newFakeCore())
	require.NoError(t, err)
	assert.False(t, skip.Skip)
}

func TestGeneBiotypesVocabularyViolations(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	core.invalidBiotypes["gene"] = []string{"bogus_biotype", "wrong_case_Coding"}

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Valid gene biotypes for core database")
	assert.False(t, a.Passed)
	assert.Contains(t, a.Diagnostic, "bogus_biotype")
	assert.Contains(t, a.Diagnostic, "wrong_case_Coding")

	a = findAssertion(t, sink, "Valid transcript biotypes for core database")
	assert.True(t, a.Passed)
	assert.Empty(t, a.Diagnostic)
}

func TestGeneBiotypesConsistentGenome(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	addGene(core, 1, "G1", "protein_coding", "protein_coding", "misc_RNA")
	addGene(core, 2, "G2", "pseudogene", "pseudogene")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	_, failed := sink.Counts()
	assert.Zero(t, failed)
}

func TestGeneBiotypesGroupMismatch(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	// No transcript shares the gene's coding group.
	addGene(core, 1, "G1", "protein_coding", "misc_RNA")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Biotype group matches between gene and transcripts")
	assert.False(t, a.Passed)
	assert.Contains(t, a.Diagnostic, "G1")
}

func TestGeneBiotypesUndefinedGroupExempt(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	// TEC maps to the undefined group; no judgment is possible.
	addGene(core, 1, "G1", "TEC", "misc_RNA")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	_, failed := sink.Counts()
	assert.Zero(t, failed)
}

func TestGeneBiotypesPseudogeneWithCodingTranscript(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	addGene(core, 1, "G1", "pseudogene", "protein_coding")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Pseudogenes do not have coding transcripts")
	assert.False(t, a.Passed)
	assert.Contains(t, a.Diagnostic, "G1")

	// The same gene also lacks a group-matching transcript.
	a = findAssertion(t, sink, "Biotype group matches between gene and transcripts")
	assert.False(t, a.Passed)
}

func TestGeneBiotypesPolymorphicPseudogene(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	addGene(core, 1, "G1", "polymorphic_pseudogene", "pseudogene")
	addGene(core, 2, "G2", "polymorphic_pseudogene", "polymorphic_pseudogene")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Polymorphic pseudogenes have polymorphic_pseudogene transcripts")
	assert.False(t, a.Passed)
	assert.Contains(t, a.Diagnostic, "G1")
	assert.NotContains(t, a.Diagnostic, "G2")
}

func TestGeneBiotypesReleasesTranscripts(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	addGene(core, 1, "G1", "protein_coding", "protein_coding")
	addGene(core, 2, "G2", "pseudogene", "pseudogene")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	for _, g := range core.genes {
		assert.Nil(t, g.CachedTranscripts(), "gene %s still holds transcripts", g.StableID)
	}
}

func TestGeneBiotypesProjectionBuildThresholds(t *testing.T) {
	buildCore := func(mismatches int) *fakeCore {
		core := newFakeCore()
		core.index = biotypeVocabulary()
		core.meta["genebuild.method"] = "projection_build"
		for i := 0; i < mismatches; i++ {
			addGene(core, int64(i+1), fmt.Sprintf("G%d", i+1), "protein_coding", "misc_RNA")
		}
		return core
	}

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), buildCore(100), sink))
	a := findAssertion(t, sink, "Biotype group matches between gene and transcripts")
	assert.True(t, a.Passed, "100 mismatches are within the lenient threshold")

	sink = report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), buildCore(101), sink))
	a = findAssertion(t, sink, "Biotype group matches between gene and transcripts")
	assert.False(t, a.Passed, "101 mismatches exceed the lenient threshold")
	assert.Contains(t, a.Diagnostic, "threshold of 100")
}

func TestGeneBiotypesProjectionBuildPseudogeneBranch(t *testing.T) {
	// The lenient pseudogene assertion tracks the polymorphic mismatch
	// count, as in the original check. Six pseudogenes with coding
	// transcripts therefore still pass while no polymorphic mismatches
	// exist.
	core := newFakeCore()
	core.index = biotypeVocabulary()
	core.meta["genebuild.method"] = "projection_build"
	for i := 0; i < 6; i++ {
		addGene(core, int64(i+1), fmt.Sprintf("G%d", i+1), "pseudogene", "protein_coding")
	}

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Pseudogenes do not have coding transcripts")
	assert.True(t, a.Passed)

	a = findAssertion(t, sink, "Polymorphic pseudogenes have polymorphic_pseudogene transcripts")
	assert.True(t, a.Passed)
}

func TestGeneBiotypesProjectionBuildPolymorphicThreshold(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	core.meta["genebuild.method"] = "projection_build"
	for i := 0; i < 6; i++ {
		addGene(core, int64(i+1), fmt.Sprintf("G%d", i+1), "polymorphic_pseudogene", "pseudogene")
	}

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Polymorphic pseudogenes have polymorphic_pseudogene transcripts")
	assert.False(t, a.Passed)

	// Mislabeled lenient branch: the pseudogene assertion fails on the
	// same polymorphic count.
	a = findAssertion(t, sink, "Pseudogenes do not have coding transcripts")
	assert.False(t, a.Passed)
}

func TestGeneBiotypesGeneNameFallsBackToID(t *testing.T) {
	core := newFakeCore()
	core.index = biotypeVocabulary()
	addGene(core, 42, "", "protein_coding", "misc_RNA")

	sink := report.NewCollector()
	require.NoError(t, GeneBiotypes{}.Validate(context.Background(), core, sink))

	a := findAssertion(t, sink, "Biotype group matches between gene and transcripts")
	assert.Contains(t, a.Diagnostic, "gene_id=42")
}
