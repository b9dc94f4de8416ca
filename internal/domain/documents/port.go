package documents

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence / version chain)
type Repository interface {
	// Persist writes the record, assigning version = latest+1 for its
	// file hash and flipping the prior record's is_latest flag. The
	// record's Version, IsLatest and PreviousVersionID fields are
	// filled in by the implementation.
	Persist(ctx context.Context, rec *ArchiveRecord) error
	Versions(ctx context.Context, tenant, fileHash string) ([]*ArchiveRecord, error)
	GetVersion(ctx context.Context, tenant, fileHash string, version int) (*ArchiveRecord, error)
	History(ctx context.Context, tenant string, latestOnly bool, limit int) ([]*ArchiveRecord, error)
}

// Cache port untuk ResultCache
type Cache interface {
	Get(hash string) (*Report, bool)
	Put(hash string, report *Report)
	Invalidate(hash string) bool
	SweepExpired() int
	Clear() int
	Stats() CacheStats
}

// FormatInspector port (structural/textual heuristics)
type FormatInspector interface {
	Inspect(text string, fonts *FontProfile) ComponentResult
}

// ImageAnalyzer port (raster forensics)
type ImageAnalyzer interface {
	Analyze(data []byte) (ComponentResult, error)
}

// ReportStore port for audit artifacts (serialized report JSON)
type ReportStore interface {
	UploadReport(ctx context.Context, key string, reportJSON []byte) (string, error)
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
