// Package listing reads the set of stocks an exchange opens with.
//
// A listing file looks like:
//
//	stocks:
//	  - symbol: TEA
//	    type: common
//	    last_dividend: 0
//	    par_value: 100
//	  - symbol: GIN
//	    type: preferred
//	    last_dividend: 8
//	    fixed_dividend: 2
//	    par_value: 100
package listing

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
	"github.com/jeovahfialho/stock-exchange/internal/market"
)

type Entry struct {
	Symbol        string  `yaml:"symbol"`
	Type          string  `yaml:"type"`
	LastDividend  int64   `yaml:"last_dividend"`
	FixedDividend *string `yaml:"fixed_dividend,omitempty"`
	ParValue      int64   `yaml:"par_value"`
}

type File struct {
	Stocks []Entry `yaml:"stocks"`
}

func Load(path string) ([]*market.Stock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) ([]*market.Stock, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	stocks := make([]*market.Stock, 0, len(file.Stocks))
	for i, e := range file.Stocks {
		s, err := e.Stock()
		if err != nil {
			return nil, fmt.Errorf("listing entry %d (%s): %w", i, e.Symbol, err)
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

func (e Entry) Stock() (*market.Stock, error) {
	st, err := domain.ParseStockType(e.Type)
	if err != nil {
		return nil, err
	}

	params := market.StockParams{
		Symbol:       e.Symbol,
		Type:         st,
		LastDividend: e.LastDividend,
		ParValue:     e.ParValue,
	}
	if e.FixedDividend != nil {
		fd, err := decimal.NewFromString(*e.FixedDividend)
		if err != nil {
			return nil, &domain.ValidationError{Field: "fixed_dividend", Value: *e.FixedDividend, Reason: "not a number"}
		}
		params.FixedDividend = decimal.NullDecimal{Decimal: fd, Valid: true}
	}

	return market.NewStock(params)
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) ([]*market.Stock, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Encode writes stocks back out in listing file form.
func Encode(w io.Writer, stocks []*market.Stock) error {
	file := File{Stocks: make([]Entry, 0, len(stocks))}
	for _, s := range stocks {
		e := Entry{
			Symbol:       s.Symbol(),
			Type:         s.Type().String(),
			LastDividend: s.LastDividend(),
			ParValue:     s.ParValue(),
		}
		if fd := s.FixedDividend(); fd.Valid {
			v := fd.Decimal.String()
			e.FixedDividend = &v
		}
		file.Stocks = append(file.Stocks, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}

// Default is the Global Beverage Corporation Exchange sample listing.
func Default() []*market.Stock {
	entries := []market.StockParams{
		{Symbol: "TEA", Type: domain.Common, LastDividend: 0, ParValue: 100},
		{Symbol: "POP", Type: domain.Common, LastDividend: 8, ParValue: 100},
		{Symbol: "ALE", Type: domain.Common, LastDividend: 23, ParValue: 60},
		{Symbol: "GIN", Type: domain.Preferred, LastDividend: 8, ParValue: 100,
			FixedDividend: decimal.NullDecimal{Decimal: decimal.NewFromInt(2), Valid: true}},
		{Symbol: "JOE", Type: domain.Common, LastDividend: 13, ParValue: 250},
	}

	stocks := make([]*market.Stock, 0, len(entries))
	for _, p := range entries {
		s, err := market.NewStock(p)
		if err != nil {
			panic(fmt.Sprintf("default listing: %v", err))
		}
		stocks = append(stocks, s)
	}
	return stocks
}
