package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clauseguard/internal/model"
)

// Analyzer analyzes one contract source (file path, "-" or URL)
type Analyzer interface {
	AnalyzeSource(ctx context.Context, source string) (*model.ContractReport, error)
}

// AnalysisJob analyzes a single contract source
type AnalysisJob struct {
	Source   string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.AnalyzeSource(ctx, j.Source)
	return &AnalysisResult{Source: j.Source, Report: report, Error: err}
}

// Recover reports a panic as this source's error
func (j *AnalysisJob) Recover(err error) Result {
	return &AnalysisResult{Source: j.Source, Error: err}
}

// AnalysisResult represents the result of an analysis job
type AnalysisResult struct {
	Source string
	Report *model.ContractReport
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many contracts concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessSources analyzes every source and returns results in input order
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*AnalysisResult {
	if len(sources) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, src := range sources {
		pool.Submit(&AnalysisJob{Source: src, Analyzer: b.analyzer})
	}

	results := pool.Wait()

	out := make([]*AnalysisResult, len(results))
	for i, result := range results {
		if ar, ok := result.(*AnalysisResult); ok {
			out[i] = ar
			continue
		}
		out[i] = &AnalysisResult{Source: sources[i], Error: result.GetError()}
	}
	return out
}

// ProcessFile reads sources from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads contract sources from a file, one path or URL
// per line. Blank lines and # comments are skipped; duplicates are dropped.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	// #nosec G304 -- path is supplied by the operator
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
