// Package engine sequences the processing pipeline for one document:
// segmentation, per-chunk field extraction, fingerprint-based duplicate
// detection, birth-year classification, and rendering into bucketed output
// blobs.
package engine

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxserbagd-cmyk/germasik/internal/extract"
	"github.com/xxxserbagd-cmyk/germasik/internal/segment"
	"github.com/xxxserbagd-cmyk/germasik/internal/store"
)

// minValidBirthYear separates the valid bucket from the invalid one.
// Records born earlier, or with no extractable year, are invalid.
const minValidBirthYear = 1952

// minNameLength is the gate's minimum full-name length in runes.
const minNameLength = 5

var yearRE = regexp.MustCompile(`\d{4}`)

// Result aggregates everything produced from one document. It is immutable
// once returned and never persisted.
type Result struct {
	Valid      string // rendered valid records
	Invalid    string // rendered invalid records
	Duplicates string // rendered duplicate records
	All        string // valid + invalid + duplicates, in that order

	ValidCount     int
	InvalidCount   int
	DuplicateCount int
	TotalCount     int

	StoreStats store.Stats
}

// Engine runs the pipeline against a fingerprint store.
type Engine struct {
	store     store.Store
	extractor *extract.Extractor
	log       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtractor substitutes the default extractor, e.g. one carrying
// config-supplied keyword sets.
func WithExtractor(ex *extract.Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithLogger attaches a logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine over the given store.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		extractor: extract.NewExtractor(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs the full pipeline on one document. The only error
// conditions are unusable input (empty, or whitespace only), both typed
// *ExtractionError; every other fault degrades per field or per chunk.
func (e *Engine) Process(text, sourceName string) (*Result, error) {
	if text == "" {
		return nil, &ExtractionError{Source: sourceName, Err: ErrEmptyInput}
	}

	chunks, err := segment.Split(text)
	if err != nil {
		if errors.Is(err, segment.ErrNoTextualContent) {
			return nil, &ExtractionError{Source: sourceName, Err: ErrNoTextualContent}
		}
		return nil, err
	}

	var validBlocks, invalidBlocks, duplicateBlocks []string
	slot := 1
	gatedOut := 0

	for _, chunk := range chunks {
		rec := e.extractor.Extract(chunk)
		if rec.NameLength() <= minNameLength || !rec.HasIdentifier() {
			gatedOut++
			continue
		}

		fp := store.Fingerprint(rec.FullName)
		if fp != "" && e.store.Contains(fp) {
			block := formatDuplicateWarning(rec.FullName) + FormatRecord(rec, slot)
			duplicateBlocks = append(duplicateBlocks, block)
			slot++
			continue
		}

		block := FormatRecord(rec, slot)
		if e.store.Add(fp) {
			block += storedNotice
		}
		if birthYear(rec) >= minValidBirthYear {
			validBlocks = append(validBlocks, block)
		} else {
			invalidBlocks = append(invalidBlocks, block)
		}
		slot++
	}

	e.log.Debug("document processed",
		zap.String("source", sourceName),
		zap.Int("chunks", len(chunks)),
		zap.Int("gated_out", gatedOut),
		zap.Int("valid", len(validBlocks)),
		zap.Int("invalid", len(invalidBlocks)),
		zap.Int("duplicates", len(duplicateBlocks)))

	valid := strings.Join(validBlocks, "")
	invalid := strings.Join(invalidBlocks, "")
	duplicates := strings.Join(duplicateBlocks, "")
	return &Result{
		Valid:          valid,
		Invalid:        invalid,
		Duplicates:     duplicates,
		All:            valid + invalid + duplicates,
		ValidCount:     len(validBlocks),
		InvalidCount:   len(invalidBlocks),
		DuplicateCount: len(duplicateBlocks),
		TotalCount:     len(validBlocks) + len(invalidBlocks) + len(duplicateBlocks),
		StoreStats:     e.store.Stats(),
	}, nil
}

// birthYear extracts the first 4-digit run from the birth-date field, or 0
// when none exists.
func birthYear(r extract.Record) int {
	if r.BirthDate == extract.Sentinel {
		return 0
	}
	m := yearRE.FindString(r.BirthDate)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}
