package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/EbiArnie/ensembl-datacheck/internal/datacheck"
	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

// Lenient mismatch thresholds for projection builds, which are expected
// to carry classification noise.
const (
	projectionGroupThreshold      = 100
	projectionPseudogeneThreshold = 5
)

// GeneBiotypes verifies that gene and transcript biotypes exist in the
// biotype vocabulary, and that transcript biotype groups are consistent
// with their gene's group.
type GeneBiotypes struct{}

func (GeneBiotypes) Metadata() datacheck.Metadata {
	return datacheck.Metadata{
		Name:        "GeneBiotypes",
		Description: "Gene and transcript biotypes are valid and consistent within each gene",
		Groups:      []string{"core", "genes"},
		DBTypes:     []string{"core"},
		Tables:      []string{"biotype", "coord_system", "gene", "meta", "seq_region", "transcript"},
	}
}

// Skip never applies; the check is meaningful for any annotated genome.
func (GeneBiotypes) Skip(ctx context.Context, core ensembl.Core) (datacheck.SkipResult, error) {
	return datacheck.SkipResult{}, nil
}

func (g GeneBiotypes) Validate(ctx context.Context, core ensembl.Core, sink report.Sink) error {
	for _, objectType := range []string{"gene", "transcript"} {
		if err := validBiotypes(ctx, core, objectType, sink); err != nil {
			return err
		}
	}
	return consistentBiotypeGroups(ctx, core, sink)
}

// validBiotypes finds features whose biotype has no vocabulary entry for
// the feature kind and database type. Vocabulary matching is expressed as
// a single query: the join condition (byte-exact name match, object type,
// FIND_IN_SET on the db_type set) is exactly what the invariant states.
func validBiotypes(ctx context.Context, core ensembl.Core, objectType string, sink report.Sink) error {
	query := fmt.Sprintf(`
		SELECT DISTINCT f.biotype
		FROM %s f
		INNER JOIN seq_region sr ON f.seq_region_id = sr.seq_region_id
		INNER JOIN coord_system cs ON sr.coord_system_id = cs.coord_system_id
		LEFT JOIN biotype b ON BINARY f.biotype = BINARY b.name
			AND b.object_type = ? AND FIND_IN_SET(?, b.db_type)
		WHERE cs.species_id = ? AND b.biotype_id IS NULL
		ORDER BY f.biotype`, objectType)

	var invalid []string
	if err := core.SelectContext(ctx, &invalid, query, objectType, core.DBType(), core.SpeciesID()); err != nil {
		return fmt.Errorf("failed to query invalid %s biotypes: %w", objectType, err)
	}

	diagnostic := ""
	if len(invalid) > 0 {
		diagnostic = fmt.Sprintf("Invalid %s biotypes: %s", objectType, strings.Join(invalid, ", "))
	}
	sink.Record(
		fmt.Sprintf("Valid %s biotypes for %s database", objectType, core.DBType()),
		len(invalid) == 0,
		diagnostic)
	return nil
}

// consistentBiotypeGroups walks every toplevel gene and its transcripts
// through the structured access layer. The relational judgment spans the
// gene, transcript and biotype tables at once; traversing is clearer than
// the equivalent multi-way join and the read cost is acceptable.
func consistentBiotypeGroups(ctx context.Context, core ensembl.Core, sink report.Sink) error {
	index, err := core.BiotypeIndex(ctx)
	if err != nil {
		return err
	}
	genes, err := core.ToplevelGenes(ctx)
	if err != nil {
		return err
	}

	var groupMismatch, pseudogeneMismatch, polymorphicMismatch []string
	for _, gene := range genes {
		geneGroup := index.Group("gene", gene.Biotype)
		// No sensible judgment is possible for ungrouped biotypes.
		if geneGroup == "undefined" {
			continue
		}

		transcripts, err := core.Transcripts(ctx, gene)
		if err != nil {
			return err
		}

		groupMatch := false
		pseudogeneWithCoding := false
		polymorphicMatch := false
		for _, t := range transcripts {
			transcriptGroup := index.Group("transcript", t.Biotype)
			if transcriptGroup == geneGroup {
				groupMatch = true
			}
			if t.Biotype == "polymorphic_pseudogene" {
				polymorphicMatch = true
			}
			if geneGroup == "pseudogene" && transcriptGroup == "coding" {
				// One coding transcript is decisive for a pseudogene.
				pseudogeneWithCoding = true
				break
			}
		}

		if !groupMatch {
			groupMismatch = append(groupMismatch, geneName(gene))
		}
		if pseudogeneWithCoding {
			pseudogeneMismatch = append(pseudogeneMismatch, geneName(gene))
		}
		if gene.Biotype == "polymorphic_pseudogene" && !polymorphicMatch {
			polymorphicMismatch = append(polymorphicMismatch, geneName(gene))
		}

		// A full-genome scan must not hold every gene's transcripts at
		// once.
		gene.ReleaseTranscripts()
	}

	method, err := core.MetaValue(ctx, "genebuild.method")
	if err != nil {
		return err
	}

	if method == "projection_build" {
		// Projected annotation is expected to carry noise, so mismatches
		// are tolerated up to fixed thresholds.
		sink.Record(
			"Biotype group matches between gene and transcripts",
			len(groupMismatch) <= projectionGroupThreshold,
			thresholdDiagnostic(groupMismatch, projectionGroupThreshold))
		// The original check tests the polymorphic mismatch count here,
		// not the pseudogene one. Carried over as-is pending
		// clarification upstream.
		sink.Record(
			"Pseudogenes do not have coding transcripts",
			len(polymorphicMismatch) <= projectionPseudogeneThreshold,
			thresholdDiagnostic(polymorphicMismatch, projectionPseudogeneThreshold))
		sink.Record(
			"Polymorphic pseudogenes have polymorphic_pseudogene transcripts",
			len(polymorphicMismatch) <= projectionPseudogeneThreshold,
			thresholdDiagnostic(polymorphicMismatch, projectionPseudogeneThreshold))
		return nil
	}

	sink.Record(
		"Biotype group matches between gene and transcripts",
		len(groupMismatch) == 0,
		mismatchDiagnostic("genes without a transcript of the same biotype group", groupMismatch))
	sink.Record(
		"Pseudogenes do not have coding transcripts",
		len(pseudogeneMismatch) == 0,
		mismatchDiagnostic("pseudogenes with a coding transcript", pseudogeneMismatch))
	sink.Record(
		"Polymorphic pseudogenes have polymorphic_pseudogene transcripts",
		len(polymorphicMismatch) == 0,
		mismatchDiagnostic("polymorphic pseudogenes without a polymorphic_pseudogene transcript", polymorphicMismatch))
	return nil
}

func geneName(g *ensembl.Gene) string {
	if g.StableID != "" {
		return g.StableID
	}
	return fmt.Sprintf("gene_id=%d", g.ID)
}

func thresholdDiagnostic(mismatches []string, threshold int) string {
	if len(mismatches) <= threshold {
		return ""
	}
	return fmt.Sprintf("%d mismatches exceed threshold of %d: %s",
		len(mismatches), threshold, strings.Join(mismatches, ", "))
}

func mismatchDiagnostic(label string, mismatches []string) string {
	if len(mismatches) == 0 {
		return ""
	}
	return fmt.Sprintf("%d %s: %s", len(mismatches), label, strings.Join(mismatches, ", "))
}
