package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanRecord is a persisted scan: the canonical result flattened into
// queryable columns plus the full record for replay.
type ScanRecord struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Session    string          `json:"session" db:"session"`
	Filename   string          `json:"filename" db:"filename"`
	IsDeepfake bool            `json:"isDeepfake" db:"is_deepfake"`
	Confidence float64         `json:"confidence" db:"confidence"`
	Synthetic  bool            `json:"synthetic" db:"synthetic"`
	Result     *AnalysisResult `json:"result" db:"result"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// ScanFilter narrows and pages ListScans queries.
type ScanFilter struct {
	Session string
	Page    int
	Limit   int
}

// Normalize applies the default page size and bounds.
func (f *ScanFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// Offset returns the row offset for the normalized page.
func (f *ScanFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
