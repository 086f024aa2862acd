// Package checks contains the datacheck implementations.
package checks

import (
	"context"
	"fmt"

	"github.com/EbiArnie/ensembl-datacheck/internal/datacheck"
	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

// chromosomalCoordSystems are the coordinate systems whose seq regions
// take part in a karyotype ordering.
var chromosomalCoordSystems = []string{"chromosome", "chromosome_group", "plasmid"}

// mitochondrialNames are the region names (case-sensitive) that identify
// a mitochondrial chromosome.
var mitochondrialNames = map[string]bool{
	"chrM":                 true,
	"chrMT":                true,
	"MT":                   true,
	"Mito":                 true,
	"mitochondrion_genome": true,
}

// ChromosomeAnnotation verifies that chromosomal seq regions carry exactly
// one karyotype_rank attribute, and that mitochondrial chromosomes are
// annotated with their sequence location.
type ChromosomeAnnotation struct{}

func (ChromosomeAnnotation) Metadata() datacheck.Metadata {
	return datacheck.Metadata{
		Name:        "ChromosomeAnnotation",
		Description: "Chromosomal seq_regions have karyotype_rank and sequence_location attributes",
		Groups:      []string{"assembly", "core"},
		DBTypes:     []string{"core"},
		Tables:      []string{"attrib_type", "coord_system", "seq_region", "seq_region_attrib"},
	}
}

// Skip applies when the assembly has zero or one genuine karyotype member:
// a rank ordering is only meaningful with more than one rankable
// chromosome, so single-chromosome genomes must not fail for lacking one.
func (ChromosomeAnnotation) Skip(ctx context.Context, core ensembl.Core) (datacheck.SkipResult, error) {
	version, err := core.MetaValue(ctx, "assembly.default")
	if err != nil {
		return datacheck.SkipResult{}, err
	}

	// Counting stops as soon as a second genuine member is seen; the
	// skip decision never needs the exact total.
	count := 0
	for _, coordSystem := range chromosomalCoordSystems {
		regions, err := core.SeqRegions(ctx, coordSystem, version)
		if err != nil {
			return datacheck.SkipResult{}, err
		}
		for _, sr := range regions {
			if sr.HasAttribute("chromosome") {
				continue
			}
			count++
			if count > 1 {
				return datacheck.SkipResult{}, nil
			}
		}
	}

	return datacheck.SkipResult{
		Skip:   true,
		Reason: "Zero or one chromosomal seq_regions.",
	}, nil
}

func (ChromosomeAnnotation) Validate(ctx context.Context, core ensembl.Core, sink report.Sink) error {
	version, err := core.MetaValue(ctx, "assembly.default")
	if err != nil {
		return err
	}

	for _, coordSystem := range chromosomalCoordSystems {
		regions, err := core.SeqRegions(ctx, coordSystem, version)
		if err != nil {
			return err
		}
		for _, sr := range regions {
			// Regions with a 'chromosome' attribute are unplaced-sequence
			// collections, not genuine karyotype members.
			if sr.HasAttribute("chromosome") {
				continue
			}
			if err := validateKaryotypeMember(ctx, core, sr, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateKaryotypeMember(ctx context.Context, core ensembl.Core, sr *ensembl.SeqRegion, sink report.Sink) error {
	sink.Record(
		fmt.Sprintf("%s %s has karyotype_rank attribute", sr.CoordSystem, sr.Name),
		sr.HasAttribute("karyotype_rank"),
		"")

	// Exact cardinality is checked with an aggregate query rather than
	// the structured access layer: counting rows directly is immune to
	// caching and object-identity quirks in the attribute retrieval.
	var rankCount int
	query := `
		SELECT COUNT(*)
		FROM seq_region_attrib sra
		INNER JOIN attrib_type at ON sra.attrib_type_id = at.attrib_type_id
		WHERE at.code = 'karyotype_rank' AND sra.seq_region_id = ?`
	if err := core.GetContext(ctx, &rankCount, query, sr.ID); err != nil {
		return fmt.Errorf("failed to count karyotype_rank attributes for seq_region %d: %w", sr.ID, err)
	}
	diagnostic := ""
	if rankCount > 1 {
		diagnostic = "There is more than 1 karyotype_rank per seq_region_id"
	}
	sink.Record(
		fmt.Sprintf("%s %s should have only one karyotype_rank attribute", sr.CoordSystem, sr.Name),
		rankCount <= 1,
		diagnostic)

	if mitochondrialNames[sr.Name] {
		located := false
		for _, a := range sr.Attributes("sequence_location") {
			if a.Value == "mitochondrial_chromosome" {
				located = true
				break
			}
		}
		sink.Record(
			fmt.Sprintf("%s %s has mitochondrial_chromosome sequence_location", sr.CoordSystem, sr.Name),
			located,
			"")
	}
	return nil
}
