package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// Header is the first line of a trade file. Columns are ';' separated:
//
//	symbol;timestamp;quantity;side;price
//	TEA;2024-01-15T10:00:00Z;100;BUY;12,50
const Header = "symbol;timestamp;quantity;side;price"

type Parser struct {
	batchSize int
	workers   int
}

func NewParser(batchSize, workers int) *Parser {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	return &Parser{
		batchSize: batchSize,
		workers:   workers,
	}
}

type ParseResult struct {
	Records []domain.TradeRecord
	Errors  []error
}

type line struct {
	number int
	fields []string
}

// ParseFile parses records on p.workers goroutines. Records come back in no
// particular order; the ledger orders them on insert.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = ';'
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err == io.EOF {
		return &ParseResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !isHeader(header) {
		return nil, fmt.Errorf("unexpected header %q, want %q", strings.Join(header, ";"), Header)
	}

	jobs := make(chan line, p.workers*2)
	results := make(chan *ParseResult, p.workers)
	readErrs := make(chan error, 1)

	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		defer close(readErrs)

		n := 1
		for {
			n++
			record, err := csvReader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				readErrs <- fmt.Errorf("line %d: %w", n, err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- line{number: n, fields: record}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	finalResult := &ParseResult{
		Records: make([]domain.TradeRecord, 0, p.batchSize),
		Errors:  make([]error, 0),
	}

	for result := range results {
		finalResult.Records = append(finalResult.Records, result.Records...)
		finalResult.Errors = append(finalResult.Errors, result.Errors...)
	}

	if err := <-readErrs; err != nil {
		return finalResult, err
	}
	if err := ctx.Err(); err != nil {
		return finalResult, err
	}

	return finalResult, nil
}

func (p *Parser) worker(ctx context.Context, jobs <-chan line,
	results chan<- *ParseResult, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := &ParseResult{
		Records: make([]domain.TradeRecord, 0, p.batchSize),
	}

	for {
		select {
		case <-ctx.Done():
			if len(batch.Records) > 0 || len(batch.Errors) > 0 {
				results <- batch
			}
			return

		case l, ok := <-jobs:
			if !ok {
				if len(batch.Records) > 0 || len(batch.Errors) > 0 {
					results <- batch
				}
				return
			}

			rec, err := ParseRecord(l.fields)
			if err != nil {
				batch.Errors = append(batch.Errors, fmt.Errorf("line %d: %w", l.number, err))
				continue
			}

			batch.Records = append(batch.Records, rec)

			if len(batch.Records) >= p.batchSize {
				results <- batch
				batch = &ParseResult{
					Records: make([]domain.TradeRecord, 0, p.batchSize),
				}
			}
		}
	}
}

// ParseRecord converts one row into a TradeRecord. Field values are only
// checked for format here; range checks happen when the trade is recorded.
func ParseRecord(record []string) (domain.TradeRecord, error) {
	if len(record) < 5 {
		return domain.TradeRecord{}, fmt.Errorf("invalid record: %v", record)
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[1]))
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("invalid quantity: %w", err)
	}

	side, err := domain.ParseSide(record[3])
	if err != nil {
		return domain.TradeRecord{}, err
	}

	priceStr := strings.Replace(strings.TrimSpace(record[4]), ",", ".", -1)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("invalid price: %w", err)
	}

	return domain.TradeRecord{
		Symbol:    strings.ToUpper(strings.TrimSpace(record[0])),
		Timestamp: ts,
		Quantity:  quantity,
		Side:      side,
		Price:     price,
	}, nil
}

func isHeader(fields []string) bool {
	want := strings.Split(Header, ";")
	if len(fields) < len(want) {
		return false
	}
	for i, w := range want {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(fields[i], "\ufeff")), w) {
			return false
		}
	}
	return true
}
