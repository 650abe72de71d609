package service

import (
	"context"
	"fmt"

	"github.com/jeovahfialho/stock-exchange/internal/ingestion"
	"github.com/jeovahfialho/stock-exchange/pkg/logger"
	"github.com/jeovahfialho/stock-exchange/pkg/metrics"
	"go.uber.org/zap"
)

// IngestionService loads trade files into an ExchangeService.
type IngestionService struct {
	parser     *ingestion.Parser
	loader     *ingestion.BulkLoader
	downloader *ingestion.Downloader
	workers    int
}

func NewIngestionService(exchange *ExchangeService, batchSize, workers int) *IngestionService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionService{
		parser:     ingestion.NewParser(batchSize, workers),
		loader:     ingestion.NewBulkLoader(exchange, batchSize),
		downloader: ingestion.NewDownloader(workers),
		workers:    workers,
	}
}

type ProcessFileResult struct {
	FilePath     string
	RecordsCount int64
	Errors       []error
}

// ProcessFiles loads every file on a worker pool. A file that cannot be read
// is reported in its result; the others are still loaded.
func (s *IngestionService) ProcessFiles(ctx context.Context, filePaths []string) ([]ProcessFileResult, error) {
	timer := metrics.NewTimer()
	logger.WithContext(ctx).Info("loading trade files", zap.Int("files", len(filePaths)))

	pool := ingestion.NewWorkerPool(s.workers, s.parser, s.loader)
	pool.Start(ctx)

	results := make(chan ingestion.JobResult, len(filePaths))
	go func() {
		defer pool.Stop()
		for _, p := range filePaths {
			if err := pool.SubmitContext(ctx, ingestion.Job{FilePath: p, Result: results}); err != nil {
				return
			}
		}
	}()

	out := make([]ProcessFileResult, 0, len(filePaths))
	for range filePaths {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case r := <-results:
			res := ProcessFileResult{
				FilePath:     r.FilePath,
				RecordsCount: r.RecordsCount,
				Errors:       r.Rejected,
			}
			if r.Error != nil {
				res.Errors = append([]error{r.Error}, res.Errors...)
			}
			out = append(out, res)
		}
	}

	logger.WithContext(ctx).Info("trade files loaded",
		zap.Int("files", len(out)),
		zap.Duration("elapsed", timer.Elapsed()))
	return out, nil
}

// ProcessURLs downloads each URL into dir and loads the files that arrived.
func (s *IngestionService) ProcessURLs(ctx context.Context, urls []string, dir string) ([]ProcessFileResult, error) {
	paths, errs := s.downloader.DownloadAll(ctx, urls, dir)
	for _, err := range errs {
		logger.WithContext(ctx).Warn("trade file download failed", zap.Error(err))
	}
	if len(paths) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("no trade file downloaded: %w", errs[0])
	}
	return s.ProcessFiles(ctx, paths)
}
