// Package ingest reads delimited source files of uncertain encoding and
// loads them into the record store through the upsert path.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/encdetect"
	"github.com/comicbase/comics-api/pkg/parser"
	"github.com/comicbase/comics-api/pkg/textnorm"
)

// Options tune one import batch.
type Options struct {
	// CleanSpecialChars runs every cell through the text normalizer
	// before parsing.
	CleanSpecialChars bool
	// Verbose logs row-level progress.
	Verbose bool
	// DryRun is carried for reporting; the caller chooses the store.
	DryRun bool
}

// FileSummary reports one processed file.
type FileSummary struct {
	File       string  `json:"file"`
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	Imported   int     `json:"imported"`
	Errors     int     `json:"errors"`
	Skipped    bool    `json:"skipped"`
}

// Summary aggregates a whole batch.
type Summary struct {
	Files    []FileSummary `json:"files"`
	Imported int           `json:"imported"`
	Errors   int           `json:"errors"`
}

// Importer drives ingestion into a record store.
type Importer struct {
	store    catalog.Store
	logger   *slog.Logger
	opts     Options
	progress *Progress
	now      func() time.Time
}

// New builds an importer writing to the given store.
func New(store catalog.Store, logger *slog.Logger, opts Options) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:    store,
		logger:   logger,
		opts:     opts,
		progress: &Progress{},
		now:      time.Now,
	}
}

// Progress returns the live progress tracker for this importer.
func (im *Importer) Progress() *Progress { return im.progress }

// ImportFiles processes the given files in order. A missing or
// unreadable file is skipped and reported; it never aborts the batch.
// The batch outcome is recorded as an import run in the store.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) (Summary, error) {
	im.progress.start(paths)
	defer im.progress.end()

	var summary Summary
	for _, path := range paths {
		fs, err := im.ImportFile(ctx, path)
		if err != nil {
			im.logger.Warn("skipping file", "file", path, "error", err)
			fs.Skipped = true
		}
		summary.Files = append(summary.Files, fs)
		summary.Imported += fs.Imported
		summary.Errors += fs.Errors
	}

	run := catalog.ImportRun{
		Date:     im.now(),
		Files:    len(paths),
		Imported: summary.Imported,
		Errors:   summary.Errors,
		Complete: true,
	}
	if err := im.store.RecordImportRun(ctx, run); err != nil {
		im.logger.Warn("failed to record import run", "error", err)
	}

	im.logger.Info("import complete", "files", len(paths), "imported", summary.Imported, "errors", summary.Errors)
	return summary, nil
}

// ImportFile ingests one delimited file: detect its encoding, decode
// with lossy substitution, then parse and upsert row by row. A bad row
// is counted and skipped; only a file-level failure returns an error.
func (im *Importer) ImportFile(ctx context.Context, path string) (FileSummary, error) {
	summary := FileSummary{File: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("read %s: %w", path, err)
	}

	name, confidence := encdetect.Detect(raw)
	summary.Encoding = name
	summary.Confidence = confidence
	im.logger.Info("processing file", "file", path, "encoding", name, "confidence", confidence)

	decoded := encdetect.DecodeLossy(raw, name)
	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		return summary, fmt.Errorf("read header of %s: %w", path, err)
	}

	totalRows := strings.Count(decoded, "\n")
	rowNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			summary.Errors++
			if im.opts.Verbose {
				im.logger.Warn("bad row", "file", path, "row", rowNum, "error", err)
			}
			continue
		}

		row := rowToMap(header, fields)
		if im.opts.CleanSpecialChars {
			row = textnorm.CleanRow(row)
		}

		parsed := parser.ParseRow(row)
		if parsed.ExternalID == "" {
			summary.Errors++
			if im.opts.Verbose {
				im.logger.Warn("row without record ID", "file", path, "row", rowNum)
			}
			continue
		}

		if _, err := im.store.Upsert(ctx, parsed); err != nil {
			summary.Errors++
			if im.opts.Verbose {
				im.logger.Warn("upsert failed", "file", path, "row", rowNum, "id", parsed.ExternalID, "error", err)
			}
			continue
		}
		summary.Imported++

		if im.opts.Verbose && summary.Imported%100 == 0 {
			im.logger.Info("progress", "file", path, "imported", summary.Imported)
		}
		if totalRows > 0 {
			im.progress.updateFile(path, float64(rowNum)/float64(totalRows)*100)
		}
	}

	im.progress.updateFile(path, 100)
	im.logger.Info("file done", "file", path, "imported", summary.Imported, "errors", summary.Errors)
	return summary, nil
}

func rowToMap(header, fields []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(fields) {
			row[col] = fields[i]
		} else {
			row[col] = ""
		}
	}
	return row
}
