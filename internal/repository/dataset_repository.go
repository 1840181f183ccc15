package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

var datasetTables = map[models.DatasetKind]string{
	models.DatasetAttractiveness: "attractiveness_records",
	models.DatasetOpportunities:  "opportunity_records",
	models.DatasetDeposits:       "deposit_records",
}

// datasetRepository implements DatasetRepository
type datasetRepository struct {
	db dbExecutor
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db dbExecutor) DatasetRepository {
	return &datasetRepository{db: db}
}

// replace drops the previous batches of the kind, records the new batch and
// bulk loads rows with COPY.
func (r *datasetRepository) replace(batch *models.UploadBatch, columns []string, rows func(stmt *sql.Stmt) error) error {
	table, ok := datasetTables[batch.Kind]
	if !ok {
		return fmt.Errorf("unknown dataset kind %q", batch.Kind)
	}

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}

	// rows cascade with their batch
	if _, err := r.db.Exec(`DELETE FROM upload_batches WHERE kind = $1`, string(batch.Kind)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", batch.Kind, err)
	}

	_, err := r.db.Exec(`
		INSERT INTO upload_batches (id, kind, source_name, format, row_count, skipped_rows, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, batch.ID, string(batch.Kind), batch.SourceName, batch.Format, batch.RowCount, batch.SkippedRows, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create upload batch: %w", err)
	}

	stmt, err := r.db.Prepare(pq.CopyIn(table, append([]string{"batch_id"}, columns...)...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	defer stmt.Close()

	if err := rows(stmt); err != nil {
		return fmt.Errorf("failed to copy into %s: %w", table, err)
	}

	// flush
	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	return nil
}

// ReplaceAttractiveness replaces the attractiveness dataset
func (r *datasetRepository) ReplaceAttractiveness(batch *models.UploadBatch, records []models.AttractivenessRecord) error {
	columns := []string{
		"msa", "product", "parameters", "market_size", "revenue_per_company",
		"risk", "price", "latitude", "longitude",
	}
	return r.replace(batch, columns, func(stmt *sql.Stmt) error {
		for _, rec := range records {
			// COPY encodes []byte as bytea, so the JSON goes in as text
			params, err := json.Marshal(rec.Values)
			if err != nil {
				return fmt.Errorf("failed to encode parameters for %s: %w", rec.MSA, err)
			}
			_, err = stmt.Exec(batch.ID, rec.MSA, rec.Product, string(params), rec.MarketSize,
				rec.RevenuePerCompany, rec.Risk, rec.Price, rec.Latitude, rec.Longitude)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceOpportunities replaces the opportunity dataset
func (r *datasetRepository) ReplaceOpportunities(batch *models.UploadBatch, records []models.OpportunityRecord) error {
	columns := []string{
		"msa", "provider", "product", "market_share_pct", "market_size", "defend_dollars",
		"opportunity_category", "weighted_average_score", "included_in_ranking", "exclusion",
	}
	return r.replace(batch, columns, func(stmt *sql.Stmt) error {
		for _, rec := range records {
			_, err := stmt.Exec(batch.ID, rec.MSA, rec.Provider, rec.Product, rec.MarketSharePct,
				rec.MarketSize, rec.DefendDollars, rec.OpportunityCategory, rec.WeightedAverageScore,
				rec.IncludedInRanking, rec.Exclusion)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceDeposits replaces the deposit dataset
func (r *datasetRepository) ReplaceDeposits(batch *models.UploadBatch, records []models.DepositRecord) error {
	columns := []string{"msa", "provider", "market_share_pct"}
	return r.replace(batch, columns, func(stmt *sql.Stmt) error {
		for _, rec := range records {
			if _, err := stmt.Exec(batch.ID, rec.MSA, rec.Provider, rec.MarketSharePct); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAttractiveness retrieves the current attractiveness dataset
func (r *datasetRepository) ListAttractiveness() ([]models.AttractivenessRecord, error) {
	rows, err := r.db.Query(`
		SELECT msa, product, parameters, market_size, revenue_per_company, risk, price, latitude, longitude
		FROM attractiveness_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attractiveness records: %w", err)
	}
	defer rows.Close()

	records := []models.AttractivenessRecord{}
	for rows.Next() {
		var rec models.AttractivenessRecord
		var lat, lon sql.NullFloat64
		err := rows.Scan(&rec.MSA, &rec.Product, &rec.Values, &rec.MarketSize,
			&rec.RevenuePerCompany, &rec.Risk, &rec.Price, &lat, &lon)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attractiveness record: %w", err)
		}
		rec.Latitude = nullFloat(lat)
		rec.Longitude = nullFloat(lon)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attractiveness records: %w", err)
	}
	return records, nil
}

// ListOpportunities retrieves the current opportunity dataset
func (r *datasetRepository) ListOpportunities() ([]models.OpportunityRecord, error) {
	rows, err := r.db.Query(`
		SELECT msa, provider, product, market_share_pct, market_size, defend_dollars,
		       opportunity_category, weighted_average_score, included_in_ranking, exclusion
		FROM opportunity_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity records: %w", err)
	}
	defer rows.Close()

	records := []models.OpportunityRecord{}
	for rows.Next() {
		var rec models.OpportunityRecord
		var satisfaction sql.NullFloat64
		err := rows.Scan(&rec.MSA, &rec.Provider, &rec.Product, &rec.MarketSharePct, &rec.MarketSize,
			&rec.DefendDollars, &rec.OpportunityCategory, &satisfaction, &rec.IncludedInRanking, &rec.Exclusion)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity record: %w", err)
		}
		rec.WeightedAverageScore = nullFloat(satisfaction)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunity records: %w", err)
	}
	return records, nil
}

// ListDeposits retrieves the current deposit dataset
func (r *datasetRepository) ListDeposits() ([]models.DepositRecord, error) {
	rows, err := r.db.Query(`SELECT msa, provider, market_share_pct FROM deposit_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposit records: %w", err)
	}
	defer rows.Close()

	records := []models.DepositRecord{}
	for rows.Next() {
		var rec models.DepositRecord
		if err := rows.Scan(&rec.MSA, &rec.Provider, &rec.MarketSharePct); err != nil {
			return nil, fmt.Errorf("failed to scan deposit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposit records: %w", err)
	}
	return records, nil
}

// LatestBatch retrieves the most recent upload of a kind
func (r *datasetRepository) LatestBatch(kind models.DatasetKind) (*models.UploadBatch, error) {
	var batch models.UploadBatch
	var k string
	err := r.db.QueryRow(`
		SELECT id, kind, source_name, format, row_count, skipped_rows, created_at
		FROM upload_batches
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, string(kind)).Scan(&batch.ID, &k, &batch.SourceName, &batch.Format, &batch.RowCount, &batch.SkippedRows, &batch.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no %s upload: %w", kind, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upload batch: %w", err)
	}
	batch.Kind = models.DatasetKind(k)
	return &batch, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
