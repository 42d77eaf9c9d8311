package worker

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ppiankov/otpraat/internal/pipeline"
)

// Converter converts a single tableau file
type Converter interface {
	Convert(ctx context.Context, path string) (*pipeline.ConvertResult, error)
}

// ConvertJob represents one tableau file conversion
type ConvertJob struct {
	Index     int
	Path      string
	Converter Converter
}

// Execute executes the conversion job
func (j *ConvertJob) Execute(ctx context.Context) Result {
	result, err := j.Converter.Convert(ctx, j.Path)
	return &ConvertResult{
		Index:  j.Index,
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// ConvertResult represents the result of a conversion job
type ConvertResult struct {
	Index  int
	Path   string
	Result *pipeline.ConvertResult
	Error  error
}

// GetError returns the error from the conversion
func (r *ConvertResult) GetError() error {
	return r.Error
}

// BatchProcessor converts many tableau files concurrently
type BatchProcessor struct {
	converter   Converter
	concurrency int
	log         *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(converter Converter, concurrency int, log *zap.Logger) *BatchProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchProcessor{
		converter:   converter,
		concurrency: concurrency,
		log:         log,
	}
}

// ProcessPaths converts every path and returns results in the order the paths were given
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ConvertResult {
	if len(paths) == 0 {
		return []*ConvertResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		job := &ConvertJob{
			Index:     i,
			Path:      path,
			Converter: b.converter,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	converted := make([]*ConvertResult, 0, len(paths))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		r := result.(*ConvertResult)
		done[r.Index] = true
		converted = append(converted, r)
	}

	// Jobs dropped by cancellation never produced a result
	for i, path := range paths {
		if !done[i] {
			converted = append(converted, &ConvertResult{Index: i, Path: path, Error: fmt.Errorf("not converted: %w", context.Cause(ctx))})
		}
	}
	sort.Slice(converted, func(i, j int) bool {
		return converted[i].Index < converted[j].Index
	})

	failed := 0
	for _, r := range converted {
		if r.Error != nil {
			failed++
		}
	}
	b.log.Info("batch finished", zap.Int("files", len(paths)), zap.Int("failed", failed))

	return converted
}

// ProcessListFile reads paths from a list file and converts them concurrently
func (b *BatchProcessor) ProcessListFile(ctx context.Context, fs afero.Fs, listPath string) ([]*ConvertResult, error) {
	paths, err := ReadPathsFromFile(fs, listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads tableau paths from a file (one per line).
// Blank lines and lines starting with # are ignored, duplicates are dropped.
func ReadPathsFromFile(fs afero.Fs, listPath string) ([]string, error) {
	file, err := fs.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
