// Package service holds request-level services built on the pipeline.
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/babelgate/pkg/pipeline"
)

// InputColumn is the preferred CSV column holding user text.
const InputColumn = "text"

// ResponseColumn is appended to every processed CSV.
const ResponseColumn = "response"

// ErrEmptyCSV is returned when an upload has no header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// Processor runs text through the pipeline.
type Processor interface {
	Process(ctx context.Context, text string) pipeline.Result
}

// CSVResult describes a processed file.
type CSVResult struct {
	OutputFile string
	Rows       int
	Skipped    int
	Duration   time.Duration
}

// CSVProcessor pushes every row of an uploaded CSV through the pipeline and
// writes the replies to a new file.
type CSVProcessor struct {
	processor Processor
	outputDir string
	logger    *logrus.Logger
}

// NewCSVProcessor creates a CSV processor writing into outputDir.
func NewCSVProcessor(processor Processor, outputDir string, logger *logrus.Logger) *CSVProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &CSVProcessor{
		processor: processor,
		outputDir: outputDir,
		logger:    logger,
	}
}

// ProcessCSV reads a CSV with a header row from r. The input column is
// "text" when present, otherwise the first column. Rows with empty input are
// copied with an empty response. The output file is
// <outputDir>/processed_<uuid>.csv.
func (p *CSVProcessor) ProcessCSV(ctx context.Context, r io.Reader, sourceName string) (*CSVResult, error) {
	start := time.Now()
	log := p.logger.WithFields(logrus.Fields{
		"request_id": pipeline.RequestID(ctx),
		"source":     sourceName,
	})

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := 0
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), InputColumn) {
			col = i
			break
		}
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	outPath, err := filepath.Abs(filepath.Join(p.outputDir, "processed_"+uuid.NewString()+".csv"))
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	writer := csv.NewWriter(out)

	cleanup := func() {
		out.Close()
		os.Remove(outPath)
	}

	if err := writer.Write(append(header, ResponseColumn)); err != nil {
		cleanup()
		return nil, fmt.Errorf("write header: %w", err)
	}

	result := &CSVResult{OutputFile: outPath}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("read row %d: %w", result.Rows+result.Skipped+1, err)
		}
		if ctx.Err() != nil {
			cleanup()
			return nil, ctx.Err()
		}

		reply := ""
		if col < len(record) && strings.TrimSpace(record[col]) != "" {
			reply = p.processor.Process(ctx, record[col]).Reply
			result.Rows++
		} else {
			result.Skipped++
		}

		if err := writer.Write(append(record, reply)); err != nil {
			cleanup()
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		cleanup()
		return nil, fmt.Errorf("flush output: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("close output: %w", err)
	}

	result.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"output_file": outPath,
		"rows":        result.Rows,
		"skipped":     result.Skipped,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("CSV processed")

	return result, nil
}
