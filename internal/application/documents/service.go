package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	domainassess "github.com/bryanwahyu/docutrust/internal/domain/assessment"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
	"github.com/bryanwahyu/docutrust/internal/domain/revsearch"
)

// TextExtractor pulls inspectable text (and, for page-description
// formats, the embedded font profile) out of raw bytes.
type TextExtractor interface {
	Extract(data []byte, sub domain.Submission) (string, *domain.FontProfile, error)
}

// Service implements use-cases untuk document validation.
// Safe for concurrent use: per-hash single-flight guarantees at most one
// analyzer pass per unique content.
type Service struct {
	Repo      domain.Repository
	Cache     domain.Cache
	Extractor TextExtractor
	Format    domain.FormatInspector
	Image     domain.ImageAnalyzer
	Assessor  domainassess.Assessor // optional collaborator
	Search    revsearch.Searcher    // optional collaborator
	Artifacts domain.ReportStore    // optional audit artifact store
	Clock     domain.Clock

	Fingerprinter *Fingerprinter

	AssessTimeout  time.Duration
	SearchTimeout  time.Duration
	ArchiveTimeout time.Duration
	ArchiveRetries int

	group singleflight.Group
}

// Validate runs the full pipeline: fingerprint → cache → analyzers →
// fusion → archive → cache write. Only fingerprinting can fail the
// request; everything downstream degrades into the report.
func (s *Service) Validate(ctx context.Context, tenant, filename string, data []byte) (*domain.Report, error) {
	sub, err := s.Fingerprinter.Fingerprint(data, filename)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.Cache.Get(sub.ContentHash); ok {
		slog.Info("cache hit", "hash", shortHash(sub.ContentHash))
		return cachedCopy(cached), nil
	}

	// Concurrent submissions of identical bytes share one computation.
	v, err, shared := s.group.Do(sub.ContentHash, func() (any, error) {
		if cached, ok := s.Cache.Get(sub.ContentHash); ok {
			return cached, nil
		}
		return s.process(ctx, tenant, sub, data)
	})
	if err != nil {
		return nil, err
	}

	report := v.(*domain.Report)
	if shared {
		slog.Debug("deduplicated submission", "hash", shortHash(sub.ContentHash))
	}
	return report, nil
}

// process runs the analyzers and assembles, persists and caches the report.
func (s *Service) process(ctx context.Context, tenant string, sub domain.Submission, data []byte) (*domain.Report, error) {
	slog.Info("cache miss, processing", "hash", shortHash(sub.ContentHash), "name", sub.OriginalName)

	var (
		text  string
		fonts *domain.FontProfile
	)
	if sub.IsTextual() {
		var err error
		text, fonts, err = s.Extractor.Extract(data, sub)
		if err != nil {
			slog.Warn("text extraction failed", "hash", shortHash(sub.ContentHash), "err", err)
			text = ""
		}
	}

	var (
		mu      sync.Mutex
		results []domain.ComponentResult
		wg      sync.WaitGroup
	)
	add := func(r domain.ComponentResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	// Format and image analyzers are pure over the same input and run
	// concurrently; neither mutates shared state.
	if sub.IsTextual() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			add(s.runFormat(text, fonts))
		}()
	}
	if sub.IsRaster() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			add(s.runImage(ctx, data))
		}()
	}
	if s.Assessor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			add(s.runAssessment(ctx, sub, text))
		}()
	}
	wg.Wait()

	now := s.Clock.Now()
	assessment := Fuse(results, now)
	report := BuildReport(sub, assessment, now)

	s.persist(ctx, tenant, report)

	s.Cache.Put(sub.ContentHash, report)
	return report, nil
}

func (s *Service) runFormat(text string, fonts *domain.FontProfile) (res domain.ComponentResult) {
	defer func() {
		if r := recover(); r != nil {
			res = DegradedResult(ComponentFormat, fmt.Errorf("panic: %v", r))
		}
	}()
	return s.Format.Inspect(text, fonts)
}

func (s *Service) runImage(ctx context.Context, data []byte) (res domain.ComponentResult) {
	defer func() {
		if r := recover(); r != nil {
			res = DegradedResult(ComponentImage, fmt.Errorf("panic: %v", r))
		}
	}()
	res, err := s.Image.Analyze(data)
	if err != nil {
		return DegradedResult(ComponentImage, err)
	}
	s.attachReverseSearch(ctx, data, &res)
	return res
}

// attachReverseSearch adds the optional network signal to the image
// component. A missing searcher or a timeout degrades to a note.
func (s *Service) attachReverseSearch(ctx context.Context, data []byte, res *domain.ComponentResult) {
	if s.Search == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout())
	defer cancel()

	matches, err := s.Search.Matches(sctx, data)
	if err != nil {
		res.Findings = append(res.Findings, domain.Finding{
			Type:        "reverse_search_skipped",
			Severity:    domain.SeverityLow,
			Description: "Reverse image search not performed",
		})
		return
	}
	if matches > 0 {
		f := domain.Finding{
			Type:        "reverse_search_matches",
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("Image found in %d other locations online", matches),
			Evidence:    float64(matches),
		}
		res.Findings = append(res.Findings, f)
		res.Severity = domain.MaxSeverity(res.Severity, f.Severity)
		res.Score = domain.ClampScore(res.Score + 20)
	}
}

func (s *Service) runAssessment(ctx context.Context, sub domain.Submission, text string) (res domain.ComponentResult) {
	defer func() {
		if r := recover(); r != nil {
			res = DegradedResult(ComponentAssessment, fmt.Errorf("panic: %v", r))
		}
	}()
	actx, cancel := context.WithTimeout(ctx, s.assessTimeout())
	defer cancel()

	out, err := s.Assessor.Assess(actx, sub.OriginalName, text)
	return AssessmentComponent(out, err)
}

// persist writes the version-chained record plus the audit artifact.
// Failures here are soft: the report is still returned and cached.
func (s *Service) persist(ctx context.Context, tenant string, report *domain.Report) {
	if s.Repo == nil {
		return
	}

	body, err := json.Marshal(report)
	if err != nil {
		slog.Error("report marshal failed", "report_id", report.ReportID, "err", err)
		return
	}

	rec := &domain.ArchiveRecord{
		ID:         uuid.New().String(),
		TenantID:   tenant,
		FileHash:   report.Submission.ContentHash,
		FileName:   report.FileName,
		FileSize:   report.Submission.SizeBytes,
		MIMEType:   report.Submission.MIMEType,
		RiskScore:  report.Summary.OverallRiskScore,
		Status:     report.Summary.Status,
		ReportID:   report.ReportID,
		ReportData: string(body),
		CreatedAt:  report.Timestamp,
	}

	// archive upsert is idempotent by hash+version, so a bounded retry
	// is safe
	attempts := s.ArchiveRetries + 1
	for i := 0; i < attempts; i++ {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.archiveTimeout())
		err = s.Repo.Persist(actx, rec)
		cancel()
		if err == nil {
			break
		}
	}
	if err != nil {
		slog.Warn("archive persistence failed", "report_id", report.ReportID, "err", err)
		return
	}
	report.Version = rec.Version

	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/%s/v%d.json", tenant, rec.FileHash, rec.Version)
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.archiveTimeout())
		defer cancel()
		if _, err := s.Artifacts.UploadReport(actx, key, body); err != nil {
			slog.Warn("audit artifact upload failed", "key", key, "err", err)
		}
	}
}

// Versions lists archived versions for a hash, newest first.
func (s *Service) Versions(ctx context.Context, tenant, fileHash string) ([]*domain.ArchiveRecord, error) {
	return s.Repo.Versions(ctx, tenant, fileHash)
}

// History lists recent archive records for a tenant.
func (s *Service) History(ctx context.Context, tenant string, latestOnly bool, limit int) ([]*domain.ArchiveRecord, error) {
	return s.Repo.History(ctx, tenant, latestOnly, limit)
}

// Compare diffs two archived versions of the same content hash.
func (s *Service) Compare(ctx context.Context, tenant, fileHash string, v1, v2 int) (*domain.VersionDiff, error) {
	r1, err := s.Repo.GetVersion(ctx, tenant, fileHash, v1)
	if err != nil {
		return nil, err
	}
	r2, err := s.Repo.GetVersion(ctx, tenant, fileHash, v2)
	if err != nil {
		return nil, err
	}

	delta := r2.RiskScore - r1.RiskScore
	return &domain.VersionDiff{
		FileHash:       fileHash,
		Version1:       snapshot(r1),
		Version2:       snapshot(r2),
		StatusChanged:  r1.Status != r2.Status,
		RiskScoreDelta: delta,
		Improvement:    delta < 0,
	}, nil
}

// CacheStats exposes cache statistics.
func (s *Service) CacheStats() domain.CacheStats { return s.Cache.Stats() }

// SweepCache removes expired entries and returns how many were dropped.
func (s *Service) SweepCache() int { return s.Cache.SweepExpired() }

// ClearCache drops every entry, expired or not.
func (s *Service) ClearCache() int { return s.Cache.Clear() }

// InvalidateCache drops one entry by hash.
func (s *Service) InvalidateCache(hash string) bool { return s.Cache.Invalidate(hash) }

func snapshot(r *domain.ArchiveRecord) domain.VersionSnapshot {
	return domain.VersionSnapshot{
		Version:   r.Version,
		Status:    r.Status,
		RiskScore: r.RiskScore,
		CreatedAt: r.CreatedAt,
	}
}

// cachedCopy marks a cache hit without mutating the stored report.
func cachedCopy(r *domain.Report) *domain.Report {
	cp := *r
	cp.Cached = true
	return &cp
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

func (s *Service) assessTimeout() time.Duration {
	if s.AssessTimeout > 0 {
		return s.AssessTimeout
	}
	return 30 * time.Second
}

func (s *Service) searchTimeout() time.Duration {
	if s.SearchTimeout > 0 {
		return s.SearchTimeout
	}
	return 5 * time.Second
}

func (s *Service) archiveTimeout() time.Duration {
	if s.ArchiveTimeout > 0 {
		return s.ArchiveTimeout
	}
	return 10 * time.Second
}
