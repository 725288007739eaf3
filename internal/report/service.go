package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mvale/debtscan/internal/scanning"
)

// IDGenerator generates unique IDs for runs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// SourceOpener opens an input path as a page source
type SourceOpener func(path string) (scanning.PageSource, error)

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Config carries the scan parameters and operational switches
type Config struct {
	Params   Params
	Force    bool   // rescan even when the source hash is already recorded
	DebugDir string // when set, preprocessed page images are saved here
}

// Service runs debtor-report scans
type Service struct {
	db          DB
	recognizer  scanning.Recognizer
	storage     Storage
	cfg         Config
	openSource  SourceOpener
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, recognizer scanning.Recognizer, storage Storage, cfg Config) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		storage:     storage,
		cfg:         cfg,
		openSource:  scanning.OpenSource,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, recognizer scanning.Recognizer, storage Storage, cfg Config, opener SourceOpener, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		storage:     storage,
		cfg:         cfg,
		openSource:  opener,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Scan runs the whole pipeline over the report at sourcePath: every page
// after the cover is rendered, preprocessed, recognized and mined for
// amount tokens; the tokens go to the amounts file, the values inside the
// plausible range feed the histogram, and the run is recorded in the
// registry.
func (s *Service) Scan(ctx context.Context, sourcePath string) (*Run, error) {
	started := s.timeSource.Now()

	hash, err := hashSource(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("hashing source: %w", err)
	}

	if existing, err := s.db.GetRunBySourceHash(hash); err == nil {
		if !s.cfg.Force {
			slog.Info("Source already scanned, skipping",
				"source", sourcePath,
				"run_id", existing.ID,
			)
			return existing, nil
		}
		slog.Info("Source already scanned, rescanning",
			"source", sourcePath,
			"run_id", existing.ID,
		)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking for previous run: %w", err)
	}

	source, err := s.openSource(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer source.Close()

	pageCount := source.PageCount()
	if pageCount < 2 {
		slog.Warn("Document has no pages beyond the cover", "pages", pageCount)
	}

	id := s.idGenerator.Generate()

	var tokens []string
	pagesScanned := 0
	// Page 1 is the cover, it is never rendered
	for page := 2; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageTokens, err := s.scanPage(ctx, source, page, id)
		if err != nil {
			return nil, fmt.Errorf("scanning page %d: %w", page, err)
		}

		tokens = append(tokens, pageTokens...)
		pagesScanned++
		slog.Info("Scanned page",
			"page", page,
			"pages", pageCount,
			"tokens", len(pageTokens),
		)
	}

	values, dropped := FilterAmounts(tokens, s.cfg.Params.FilterMin, s.cfg.Params.FilterMax)
	stats := Summarize(tokens, values)
	slog.Info("Filtered amounts",
		"tokens", len(tokens),
		"kept", len(values),
		"dropped", dropped,
	)

	amountsFile, err := s.storage.Save(fmt.Sprintf("%s_amounts.txt", id), amountsFileBytes(tokens))
	if err != nil {
		return nil, fmt.Errorf("saving amounts file: %w", err)
	}

	histogramFile := ""
	if len(values) > 0 {
		pngData, err := RenderHistogram(values, s.cfg.Params.Bins, filepath.Base(sourcePath))
		if err != nil {
			s.storage.Delete(amountsFile)
			return nil, fmt.Errorf("rendering histogram: %w", err)
		}
		histogramFile, err = s.storage.Save(fmt.Sprintf("%s_histogram.png", id), pngData)
		if err != nil {
			s.storage.Delete(amountsFile)
			return nil, fmt.Errorf("saving histogram: %w", err)
		}
	} else {
		slog.Warn("No amounts survived filtering, skipping histogram")
	}

	run := &Run{
		ID:            id,
		Source:        sourcePath,
		SourceHash:    hash,
		PageCount:     pageCount,
		PagesScanned:  pagesScanned,
		Params:        s.cfg.Params,
		Stats:         stats,
		AmountsFile:   amountsFile,
		HistogramFile: histogramFile,
		CreatedAt:     started,
		Duration:      s.timeSource.Now().Sub(started),
	}

	if err := s.db.SaveRun(run); err != nil {
		// Clean up artifacts if the registry save fails
		s.storage.Delete(amountsFile)
		if histogramFile != "" {
			s.storage.Delete(histogramFile)
		}
		return nil, fmt.Errorf("saving run to registry: %w", err)
	}

	return run, nil
}

// scanPage takes one page through render, preprocess, recognize and
// extraction
func (s *Service) scanPage(ctx context.Context, source scanning.PageSource, page int, runID string) ([]string, error) {
	img, err := source.Render(page, float64(s.cfg.Params.DPI))
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}

	pngData, err := scanning.Preprocess(img, s.cfg.Params.ThresholdPct)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}

	if s.cfg.DebugDir != "" {
		path := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("%s_page_%03d.png", runID, page))
		if err := os.WriteFile(path, pngData, 0644); err != nil {
			slog.Warn("Failed to save debug image", "path", path, "error", err)
		}
	}

	text, err := s.recognizer.RecognizePage(ctx, pngData)
	if err != nil {
		return nil, fmt.Errorf("recognizing: %w", err)
	}

	return scanning.AmountTokens(text), nil
}

// ListRuns returns all recorded runs, newest first
func (s *Service) ListRuns() ([]*Run, error) {
	runs, err := s.db.ListRuns()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

// DeleteRun removes a run and its artifacts
func (s *Service) DeleteRun(id string) error {
	run, err := s.db.GetRun(id)
	if err != nil {
		return fmt.Errorf("getting run for deletion: %w", err)
	}

	if run.AmountsFile != "" {
		if err := s.storage.Delete(run.AmountsFile); err != nil {
			// Log error but continue with registry deletion
			slog.Warn("Failed to delete amounts file", "name", run.AmountsFile, "error", err)
		}
	}
	if run.HistogramFile != "" {
		if err := s.storage.Delete(run.HistogramFile); err != nil {
			slog.Warn("Failed to delete histogram file", "name", run.HistogramFile, "error", err)
		}
	}

	if err := s.db.DeleteRun(id); err != nil {
		return fmt.Errorf("deleting run from registry: %w", err)
	}
	return nil
}

// amountsFileBytes lays the extracted tokens out one per line
func amountsFileBytes(tokens []string) []byte {
	if len(tokens) == 0 {
		return nil
	}
	return []byte(strings.Join(tokens, "\n") + "\n")
}

// hashSource fingerprints the input so identical reports are not scanned
// twice. A directory is hashed file by file in name order, names included,
// so renaming or reordering pages reads as a different source.
func hashSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			io.WriteString(h, entry.Name())
			data, err := os.ReadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return "", err
			}
			h.Write(data)
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
