package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DatasetKind names one of the uploadable record collections
type DatasetKind string

const (
	DatasetAttractiveness DatasetKind = "attractiveness"
	DatasetOpportunities  DatasetKind = "opportunities"
	DatasetDeposits       DatasetKind = "deposits"
)

// DatasetKinds lists every kind in upload order
func DatasetKinds() []DatasetKind {
	return []DatasetKind{DatasetAttractiveness, DatasetOpportunities, DatasetDeposits}
}

// ParseDatasetKind accepts the kind name, singular or plural
func ParseDatasetKind(s string) (DatasetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attractiveness", "market", "markets":
		return DatasetAttractiveness, nil
	case "opportunities", "opportunity":
		return DatasetOpportunities, nil
	case "deposits", "deposit":
		return DatasetDeposits, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q, expected one of %v", s, DatasetKinds())
}

// UploadBatch records one full-replace upload of a dataset
type UploadBatch struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Kind        DatasetKind `json:"kind" db:"kind"`
	SourceName  string      `json:"source_name" db:"source_name"`
	Format      string      `json:"format" db:"format"`
	RowCount    int         `json:"row_count" db:"row_count"`
	SkippedRows int         `json:"skipped_rows" db:"skipped_rows"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
