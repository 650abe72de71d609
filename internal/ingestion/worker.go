package ingestion

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jeovahfialho/stock-exchange/pkg/logger"
	"github.com/jeovahfialho/stock-exchange/pkg/metrics"
	"go.uber.org/zap"
)

type WorkerPool struct {
	workers  int
	parser   *Parser
	loader   *BulkLoader
	jobQueue chan Job
	wg       sync.WaitGroup
}

type Job struct {
	FilePath string
	Result   chan<- JobResult
}

type JobResult struct {
	FilePath     string
	RecordsCount int64
	Rejected     []error
	Error        error
}

func NewWorkerPool(workers int, parser *Parser, loader *BulkLoader) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers:  workers,
		parser:   parser,
		loader:   loader,
		jobQueue: make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) Submit(job Job) {
	wp.jobQueue <- job
}

// SubmitContext is Submit that gives up when ctx is done.
func (wp *WorkerPool) SubmitContext(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobQueue <- job:
		return nil
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processFile(ctx, job.FilePath)
			metrics.RecordFileIngested(result.Error == nil)
			if result.Error != nil {
				logger.Warn("trade file failed",
					zap.Int("worker", id),
					zap.String("file", result.FilePath),
					zap.Error(result.Error))
			} else {
				logger.Info("trade file loaded",
					zap.Int("worker", id),
					zap.String("file", result.FilePath),
					zap.Int64("records", result.RecordsCount),
					zap.Int("rejected", len(result.Rejected)))
			}
			job.Result <- result
		}
	}
}

func (wp *WorkerPool) processFile(ctx context.Context, filePath string) JobResult {

	file, err := os.Open(filePath)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("open file: %w", err),
		}
	}
	defer file.Close()

	parseResult, err := wp.parser.ParseFile(ctx, file)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("parse: %w", err),
		}
	}

	count, rejected := wp.loader.LoadTrades(ctx, parseResult.Records)
	rejected = mergeRejected(parseResult.Errors, rejected)

	for _, r := range rejected {
		if isCancellation(r) {
			return JobResult{
				FilePath:     filePath,
				RecordsCount: count,
				Rejected:     rejected,
				Error:        fmt.Errorf("load: %w", r),
			}
		}
	}

	return JobResult{
		FilePath:     filePath,
		RecordsCount: count,
		Rejected:     rejected,
		Error:        nil,
	}
}

// mergeRejected returns parse errors followed by load errors in a fresh slice.
func mergeRejected(parseErrs, loadErrs []error) []error {
	if len(parseErrs)+len(loadErrs) == 0 {
		return nil
	}
	merged := make([]error, 0, len(parseErrs)+len(loadErrs))
	merged = append(merged, parseErrs...)
	return append(merged, loadErrs...)
}
