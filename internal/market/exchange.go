package market

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
)

// Exchange maps symbols to listed stocks. Like Stock, it is not safe for
// concurrent mutation.
type Exchange struct {
	stocks map[string]*Stock
}

// NewExchange always allocates its own map, so exchanges never share listings.
func NewExchange(stocks ...*Stock) *Exchange {
	ex := &Exchange{stocks: make(map[string]*Stock, len(stocks))}
	for _, s := range stocks {
		ex.AddStock(s)
	}
	return ex
}

// AddStock lists s under its symbol, replacing any stock already listed there.
func (e *Exchange) AddStock(s *Stock) {
	e.stocks[s.Symbol()] = s
}

func (e *Exchange) GetStock(symbol string) (*Stock, error) {
	s, ok := e.stocks[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no stock matching symbol %q", domain.ErrStockNotFound, symbol)
	}
	return s, nil
}

func (e *Exchange) Symbols() []string {
	symbols := make([]string, 0, len(e.stocks))
	for sym := range e.stocks {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

func (e *Exchange) Len() int {
	return len(e.stocks)
}

// maxExactIndexStocks bounds the exact nth root path. Past it the product
// grows too large to raise to powers cheaply and the index falls back to a
// mean of logs.
const maxExactIndexStocks = 64

// indexScale is the number of decimal places kept for an irrational index.
const indexScale = 16

// AllShareIndex is the geometric mean of the par values of every listed stock,
// or 0 for an empty exchange. An index with an exact root, such as 200 for
// par values 100 and 400, is returned exactly.
func (e *Exchange) AllShareIndex() decimal.Decimal {
	if len(e.stocks) == 0 {
		return decimal.Zero
	}

	n := int64(len(e.stocks))
	product := decimal.NewFromInt(1)
	var sumLog float64
	for _, s := range e.stocks {
		if s.ParValue() == 0 {
			return decimal.Zero
		}
		sumLog += math.Log(float64(s.ParValue()))
		if n <= maxExactIndexStocks {
			product = product.Mul(decimal.NewFromInt(s.ParValue()))
		}
	}
	estimate := math.Exp(sumLog / float64(n))

	if n > maxExactIndexStocks {
		return decimal.NewFromFloat(estimate).Round(indexScale)
	}
	return nthRoot(product, n, estimate)
}

// nthRoot returns the n-th root of a positive integer product. An integer root
// is detected exactly; anything else is refined by Newton's method from the
// float estimate and rounded to indexScale places.
func nthRoot(product decimal.Decimal, n int64, estimate float64) decimal.Decimal {
	if r := decimal.NewFromFloat(math.Round(estimate)); r.IsPositive() && powInt(r, n).Equal(product) {
		return r
	}

	const workScale = indexScale + 4
	nd := decimal.NewFromInt(n)
	nMinus1 := decimal.NewFromInt(n - 1)
	epsilon := decimal.New(1, -(indexScale + 2))

	x := decimal.NewFromFloat(estimate).Round(workScale)
	if !x.IsPositive() {
		x = decimal.NewFromInt(1)
	}
	for i := 0; i < 64; i++ {
		next := x.Mul(nMinus1).
			Add(product.DivRound(powInt(x, n-1), workScale)).
			DivRound(nd, workScale)
		if next.Sub(x).Abs().LessThanOrEqual(epsilon) {
			x = next
			break
		}
		x = next
	}
	return x.Round(indexScale)
}

func powInt(x decimal.Decimal, n int64) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(x)
		}
		n >>= 1
		if n > 0 {
			x = x.Mul(x)
		}
	}
	return result
}
