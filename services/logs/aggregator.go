package logs

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/instantcocoa/argus/pkg/oberr"
)

// errorSignatures are the message fragments recognized by pattern
// detection. Matching is case-insensitive substring containment.
var errorSignatures = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"out of memory",
	"permission denied",
	"no such file",
	"too many open files",
	"panic",
}

type patternStat struct {
	count   int
	example string
}

type indexedRecord struct {
	seq    uint64
	record Record
}

// Aggregator is the in-memory log sink. Records are guaranteed to be
// retained within the capacity window; the inverted index and pattern
// counters are best-effort enrichment and never block or drop a record.
type Aggregator struct {
	mu         sync.RWMutex
	maxRecords int
	records    []indexedRecord     // FIFO, oldest first
	index      map[string][]uint64 // lowercased token -> ascending seqs
	patterns   map[string]*patternStat
	nextSeq    uint64
	evicted    int
	logger     *slog.Logger
}

// NewAggregator creates an aggregator retaining at most maxRecords entries.
func NewAggregator(maxRecords int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		maxRecords: maxRecords,
		index:      make(map[string][]uint64),
		patterns:   make(map[string]*patternStat),
		logger:     logger.With("component", "logs"),
	}
}

// Collect stores a log record, indexes its message terms, and matches it
// against the recognized error signatures. Enrichment failures are logged
// and swallowed; the raw record is retained regardless.
func (a *Aggregator) Collect(r Record) error {
	if r.Message == "" {
		return oberr.Invalid("message", "must not be empty")
	}
	switch r.Level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
	case "":
		r.Level = LevelInfo
	default:
		return oberr.Invalid("level", "unknown level: "+r.Level)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	seq := a.nextSeq
	a.nextSeq++
	a.records = append(a.records, indexedRecord{seq: seq, record: r})

	// FIFO eviction. Stale index postings are pruned lazily, once enough
	// evictions have accumulated to be worth a compaction pass.
	if a.maxRecords > 0 && len(a.records) > a.maxRecords {
		evict := len(a.records) - a.maxRecords
		a.records = a.records[evict:]
		a.evicted += evict
		if a.evicted >= a.maxRecords {
			a.compactIndex()
			a.evicted = 0
		}
	}

	a.enrich(seq, r)
	return nil
}

// enrich updates the search index and pattern counters. Called with the
// lock held; recovers from any enrichment bug so the record survives.
func (a *Aggregator) enrich(seq uint64, r Record) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Warn("log enrichment skipped", "panic", rec)
		}
	}()

	for _, token := range tokenize(r.Message) {
		a.index[token] = append(a.index[token], seq)
	}

	lower := strings.ToLower(r.Message)
	for _, sig := range errorSignatures {
		if strings.Contains(lower, sig) {
			st, ok := a.patterns[sig]
			if !ok {
				st = &patternStat{example: r.Message}
				a.patterns[sig] = st
			}
			st.count++
		}
	}
}

// Search intersects index matches with the supplied filters and returns
// the most recent matches first, bounded by the limit.
func (a *Aggregator) Search(q SearchQuery) []Record {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	// Resolve query terms against the inverted index. A term missing from
	// the index may still match as a substring, so fall back to a scan.
	var candidates map[uint64]bool
	useIndex := false
	if q.Query != "" {
		terms := tokenize(q.Query)
		useIndex = len(terms) > 0
		for _, term := range terms {
			postings, ok := a.index[term]
			if !ok {
				useIndex = false
				break
			}
			set := make(map[uint64]bool, len(postings))
			for _, seq := range postings {
				if candidates == nil || candidates[seq] {
					set[seq] = true
				}
			}
			candidates = set
		}
	}

	lowerQuery := strings.ToLower(q.Query)
	var results []Record
	for i := len(a.records) - 1; i >= 0 && len(results) < limit; i-- {
		entry := a.records[i]
		r := entry.record
		if q.Level != "" && r.Level != q.Level {
			continue
		}
		if q.Source != "" && r.Source != q.Source {
			continue
		}
		if q.TraceID != "" && r.TraceID != q.TraceID {
			continue
		}
		if q.Query != "" {
			if useIndex {
				if !candidates[entry.seq] {
					continue
				}
			} else if !strings.Contains(strings.ToLower(r.Message), lowerQuery) {
				continue
			}
		}
		results = append(results, r)
	}
	return results
}

// GetStatistics returns counts by level and source, total volume, and the
// covered time span.
func (a *Aggregator) GetStatistics() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Statistics{
		TotalCount:     len(a.records),
		CountsByLevel:  make(map[string]int),
		CountsBySource: make(map[string]int),
	}
	for _, entry := range a.records {
		r := entry.record
		stats.CountsByLevel[r.Level]++
		stats.CountsBySource[r.Source]++
		if stats.OldestTimestamp.IsZero() || r.Timestamp.Before(stats.OldestTimestamp) {
			stats.OldestTimestamp = r.Timestamp
		}
		if r.Timestamp.After(stats.NewestTimestamp) {
			stats.NewestTimestamp = r.Timestamp
		}
	}
	return stats
}

// GetErrorAnalysis returns the recognized pattern frequencies, most
// frequent first. Ties break alphabetically for stable output.
func (a *Aggregator) GetErrorAnalysis() []PatternCount {
	a.mu.RLock()
	patterns := make([]PatternCount, 0, len(a.patterns))
	for sig, st := range a.patterns {
		patterns = append(patterns, PatternCount{
			Pattern: sig,
			Count:   st.count,
			Example: st.example,
		})
	}
	a.mu.RUnlock()

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Pattern < patterns[j].Pattern
	})
	return patterns
}

// compactIndex drops postings that refer to evicted records. Called with
// the lock held.
func (a *Aggregator) compactIndex() {
	if len(a.records) == 0 {
		a.index = make(map[string][]uint64)
		return
	}
	floor := a.records[0].seq
	for token, postings := range a.index {
		n := sort.Search(len(postings), func(i int) bool { return postings[i] >= floor })
		if n == len(postings) {
			delete(a.index, token)
			continue
		}
		if n > 0 {
			a.index[token] = postings[n:]
		}
	}
}

// tokenize lowercases a message and splits it into index terms.
func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
