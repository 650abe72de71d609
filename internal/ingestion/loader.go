package ingestion

import (
	"context"
	"errors"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
)

// Recorder accepts parsed trades. service.ExchangeService implements it.
type Recorder interface {
	RecordTrades(ctx context.Context, recs []domain.TradeRecord) (int, []error)
}

// BulkLoader hands records to a Recorder in chunks of batchSize so a large file
// never holds the exchange write lock for its whole length.
type BulkLoader struct {
	recorder  Recorder
	batchSize int
}

func NewBulkLoader(recorder Recorder, batchSize int) *BulkLoader {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BulkLoader{
		recorder:  recorder,
		batchSize: batchSize,
	}
}

// LoadTrades returns the number of trades recorded and the rejected records.
// It stops between chunks when ctx is cancelled.
func (l *BulkLoader) LoadTrades(ctx context.Context, recs []domain.TradeRecord) (int64, []error) {
	var total int64
	var rejected []error

	for _, chunk := range l.splitIntoChunks(recs) {
		if err := ctx.Err(); err != nil {
			return total, append(rejected, err)
		}
		n, errs := l.recorder.RecordTrades(ctx, chunk)
		total += int64(n)
		rejected = append(rejected, errs...)
	}

	return total, rejected
}

func (l *BulkLoader) splitIntoChunks(recs []domain.TradeRecord) [][]domain.TradeRecord {
	var chunks [][]domain.TradeRecord

	for i := 0; i < len(recs); i += l.batchSize {
		end := i + l.batchSize
		if end > len(recs) {
			end = len(recs)
		}
		chunks = append(chunks, recs[i:end])
	}

	return chunks
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
