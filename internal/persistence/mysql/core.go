// Package mysql implements the ensembl.Core facade against an Ensembl
// core-schema MySQL database.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/EbiArnie/ensembl-datacheck/internal/ensembl"
)

// coreAdaptor implements ensembl.Core over sqlx
type coreAdaptor struct {
	db        *sqlx.DB
	speciesID int64
	dbType    string
	timeout   time.Duration
}

// NewCore creates a species-scoped facade over an Ensembl core database.
func NewCore(db *sqlx.DB, speciesID int64, dbType string, timeout time.Duration) ensembl.Core {
	return &coreAdaptor{
		db:        db,
		speciesID: speciesID,
		dbType:    dbType,
		timeout:   timeout,
	}
}

func (c *coreAdaptor) SpeciesID() int64 { return c.speciesID }
func (c *coreAdaptor) DBType() string   { return c.dbType }

// GetContext exposes direct single-row queries to checks.
func (c *coreAdaptor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.db.GetContext(ctx, dest, query, args...)
}

// SelectContext exposes direct multi-row queries to checks.
func (c *coreAdaptor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.db.SelectContext(ctx, dest, query, args...)
}

func (c *coreAdaptor) SeqRegions(ctx context.Context, coordSystem, version string) ([]*ensembl.SeqRegion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT sr.seq_region_id, sr.name, cs.name AS coord_system, sr.length
		FROM seq_region sr
		INNER JOIN coord_system cs ON sr.coord_system_id = cs.coord_system_id
		WHERE cs.name = ? AND cs.species_id = ?`
	args := []interface{}{coordSystem, c.speciesID}
	if version != "" {
		query += ` AND cs.version = ?`
		args = append(args, version)
	}
	query += ` ORDER BY sr.seq_region_id`

	type regionRow struct {
		SeqRegionID int64  `db:"seq_region_id"`
		Name        string `db:"name"`
		CoordSystem string `db:"coord_system"`
		Length      int64  `db:"length"`
	}
	var rows []regionRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query seq regions for %s: %w", coordSystem, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SeqRegionID)
	}
	attribs, err := c.seqRegionAttribs(ctx, ids)
	if err != nil {
		return nil, err
	}

	regions := make([]*ensembl.SeqRegion, 0, len(rows))
	for _, r := range rows {
		regions = append(regions, ensembl.NewSeqRegion(
			r.SeqRegionID, r.Name, r.CoordSystem, r.Length, attribs[r.SeqRegionID]))
	}
	return regions, nil
}

// seqRegionAttribs loads attributes for a batch of seq regions in one query.
func (c *coreAdaptor) seqRegionAttribs(ctx context.Context, ids []int64) (map[int64][]ensembl.Attribute, error) {
	query, args, err := sqlx.In(`
		SELECT sra.seq_region_id, at.code, sra.value
		FROM seq_region_attrib sra
		INNER JOIN attrib_type at ON sra.attrib_type_id = at.attrib_type_id
		WHERE sra.seq_region_id IN (?)
		ORDER BY sra.seq_region_id, at.code`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build seq_region_attrib query: %w", err)
	}

	type attribRow struct {
		SeqRegionID int64  `db:"seq_region_id"`
		Code        string `db:"code"`
		Value       string `db:"value"`
	}
	var rows []attribRow
	if err := c.db.SelectContext(ctx, &rows, c.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query seq region attributes: %w", err)
	}

	attribs := make(map[int64][]ensembl.Attribute)
	for _, r := range rows {
		attribs[r.SeqRegionID] = append(attribs[r.SeqRegionID], ensembl.Attribute{
			Code:  r.Code,
			Value: r.Value,
		})
	}
	return attribs, nil
}

func (c *coreAdaptor) ToplevelGenes(ctx context.Context) ([]*ensembl.Gene, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT g.gene_id, g.stable_id, g.biotype
		FROM gene g
		INNER JOIN seq_region sr ON g.seq_region_id = sr.seq_region_id
		INNER JOIN coord_system cs ON sr.coord_system_id = cs.coord_system_id
		INNER JOIN seq_region_attrib sra ON sr.seq_region_id = sra.seq_region_id
		INNER JOIN attrib_type at ON sra.attrib_type_id = at.attrib_type_id
		WHERE at.code = 'toplevel' AND cs.species_id = ?
		ORDER BY g.gene_id`

	type geneRow struct {
		GeneID   int64          `db:"gene_id"`
		StableID sql.NullString `db:"stable_id"`
		Biotype  string         `db:"biotype"`
	}
	var rows []geneRow
	if err := c.db.SelectContext(ctx, &rows, query, c.speciesID); err != nil {
		return nil, fmt.Errorf("failed to query toplevel genes: %w", err)
	}

	genes := make([]*ensembl.Gene, 0, len(rows))
	for _, r := range rows {
		genes = append(genes, &ensembl.Gene{
			ID:       r.GeneID,
			StableID: r.StableID.String,
			Biotype:  r.Biotype,
		})
	}
	return genes, nil
}

func (c *coreAdaptor) Transcripts(ctx context.Context, g *ensembl.Gene) ([]*ensembl.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT transcript_id, stable_id, biotype
		FROM transcript
		WHERE gene_id = ?
		ORDER BY transcript_id`

	type transcriptRow struct {
		TranscriptID int64          `db:"transcript_id"`
		StableID     sql.NullString `db:"stable_id"`
		Biotype      string         `db:"biotype"`
	}
	var rows []transcriptRow
	if err := c.db.SelectContext(ctx, &rows, query, g.ID); err != nil {
		return nil, fmt.Errorf("failed to query transcripts for gene %d: %w", g.ID, err)
	}

	transcripts := make([]*ensembl.Transcript, 0, len(rows))
	for _, r := range rows {
		transcripts = append(transcripts, &ensembl.Transcript{
			ID:       r.TranscriptID,
			StableID: r.StableID.String,
			Biotype:  r.Biotype,
		})
	}
	g.AttachTranscripts(transcripts)
	return transcripts, nil
}

func (c *coreAdaptor) BiotypeIndex(ctx context.Context) (ensembl.BiotypeIndex, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT name, object_type, biotype_group
		FROM biotype
		WHERE FIND_IN_SET(?, db_type)`

	type biotypeRow struct {
		Name       string `db:"name"`
		ObjectType string `db:"object_type"`
		Group      string `db:"biotype_group"`
	}
	var rows []biotypeRow
	if err := c.db.SelectContext(ctx, &rows, query, c.dbType); err != nil {
		return nil, fmt.Errorf("failed to query biotype vocabulary: %w", err)
	}

	index := make(ensembl.BiotypeIndex)
	for _, r := range rows {
		if index[r.ObjectType] == nil {
			index[r.ObjectType] = make(map[string]string)
		}
		index[r.ObjectType][r.Name] = r.Group
	}
	return index, nil
}

func (c *coreAdaptor) MetaValue(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT meta_value
		FROM meta
		WHERE meta_key = ? AND species_id = ?
		LIMIT 1`

	var value string
	err := c.db.GetContext(ctx, &value, query, key, c.speciesID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query meta key %s: %w", key, err)
	}
	return value, nil
}
