package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoicer/internal/logger"
)

// DefaultWorkers is used when no positive worker count is configured.
const DefaultWorkers = 12

// Exporter receives the results of a finished run, e.g. an invoice register.
type Exporter interface {
	Export(ctx context.Context, results []Result) error
}

// WorkerJob represents a file processing job
type WorkerJob struct {
	FilePath string
	Index    int
}

// Summary aggregates one run.
type Summary struct {
	RunID    string
	Total    int
	Success  int
	Warning  int
	Error    int
	Skipped  int
	Duration time.Duration
	Results  []Result
}

// Failed reports whether any record failed or was skipped.
func (s *Summary) Failed() bool {
	return s.Error > 0 || s.Skipped > 0
}

// Runner processes many files in parallel with a fixed worker pool.
type Runner struct {
	proc     *Processor
	workers  int
	metrics  *Metrics
	exporter Exporter

	// Progress, if set, is called after every record with the number of
	// records done so far. Calls are serialised.
	Progress func(done, total int, r Result)
}

// NewRunner creates a Runner. A non-positive workers uses DefaultWorkers.
func NewRunner(proc *Processor, workers int) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{proc: proc, workers: workers}
}

// WithMetrics makes the runner report to m.
func (r *Runner) WithMetrics(m *Metrics) *Runner {
	r.metrics = m
	return r
}

// WithExporter makes the runner hand every finished run to e.
func (r *Runner) WithExporter(e Exporter) *Runner {
	r.exporter = e
	return r
}

// Run processes all order files directly inside dir.
func (r *Runner) Run(ctx context.Context, dir string) (*Summary, error) {
	files, err := FindInputFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find input files: %w", err)
	}
	return r.RunFiles(ctx, files)
}

// RunFiles processes the given files and returns their results in input order.
func (r *Runner) RunFiles(ctx context.Context, files []string) (*Summary, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(runID)
	start := time.Now()

	if err := r.proc.EnsureDirs(); err != nil {
		return nil, err
	}

	log.Info().
		Int("files", len(files)).
		Int("workers", r.workers).
		Bool("dry_run", r.proc.opts.DryRun).
		Msg("Starting batch run")

	results := r.processInParallel(ctx, files, log)

	summary := &Summary{
		RunID:    runID,
		Total:    len(results),
		Duration: time.Since(start),
		Results:  results,
	}
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			summary.Success++
		case StatusWarning:
			summary.Warning++
		case StatusError:
			summary.Error++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	r.metrics.ObserveRun()

	log.Info().
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("warnings", summary.Warning).
		Int("errors", summary.Error).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Batch run completed")

	if r.exporter != nil && !r.proc.opts.DryRun && len(results) > 0 {
		if err := r.exporter.Export(ctx, results); err != nil {
			return summary, fmt.Errorf("export results: %w", err)
		}
	}

	return summary, nil
}

// processInParallel processes files using a worker pool pattern
func (r *Runner) processInParallel(ctx context.Context, files []string, log zerolog.Logger) []Result {
	jobs := make(chan WorkerJob, len(files))
	results := make([]Result, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing file")

				result := r.proc.ProcessFile(ctx, job.FilePath)
				result.Index = job.Index
				results[job.Index] = result
				r.metrics.Observe(result)

				mu.Lock()
				processedCount++
				if r.Progress != nil {
					r.Progress(processedCount, len(files), result)
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, file := range files {
		jobs <- WorkerJob{
			FilePath: file,
			Index:    i,
		}
	}
	close(jobs)

	wg.Wait()

	return results
}

// FindInputFiles lists the *.json files directly inside dir, sorted by name.
// Subdirectories and hidden files are ignored.
func FindInputFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("folder not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if IsInputFile(e.Name()) && e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsInputFile reports whether name looks like an order file.
func IsInputFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".json")
}
