// Package ledger keeps the trades of a single stock ordered by timestamp.
//
// A Ledger is not safe for concurrent use. Callers that share one between
// goroutines serialise access themselves (see service.ExchangeService).
package ledger

import (
	"sort"
	"time"

	"github.com/jeovahfialho/stock-exchange/internal/domain"
)

type Ledger struct {
	trades []domain.Trade
}

func New() *Ledger {
	return &Ledger{}
}

// Insert places t after every trade whose timestamp is not later than its own,
// so trades sharing a timestamp keep their insertion order.
func (l *Ledger) Insert(t domain.Trade) {
	i := l.upperBound(t.Timestamp)

	l.trades = append(l.trades, domain.Trade{})
	copy(l.trades[i+1:], l.trades[i:])
	l.trades[i] = t
}

// Since returns every trade with timestamp >= cutoff in ascending order. The
// result shares storage with the ledger and must be treated as read-only.
func (l *Ledger) Since(cutoff time.Time) []domain.Trade {
	i := l.lowerBound(cutoff)
	return l.trades[i:len(l.trades):len(l.trades)]
}

// Between returns trades with from <= timestamp < to.
func (l *Ledger) Between(from, to time.Time) []domain.Trade {
	if !from.Before(to) {
		return nil
	}
	i := l.lowerBound(from)
	j := l.lowerBound(to)
	return l.trades[i:j:j]
}

func (l *Ledger) All() []domain.Trade {
	return l.trades[:len(l.trades):len(l.trades)]
}

func (l *Ledger) Last() (domain.Trade, bool) {
	if len(l.trades) == 0 {
		return domain.Trade{}, false
	}
	return l.trades[len(l.trades)-1], true
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// lowerBound is the first index whose timestamp is not before ts.
func (l *Ledger) lowerBound(ts time.Time) int {
	return sort.Search(len(l.trades), func(i int) bool {
		return !l.trades[i].Timestamp.Before(ts)
	})
}

// upperBound is the first index whose timestamp is after ts.
func (l *Ledger) upperBound(ts time.Time) int {
	return sort.Search(len(l.trades), func(i int) bool {
		return l.trades[i].Timestamp.After(ts)
	})
}
