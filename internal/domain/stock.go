package domain

import (
	"fmt"
	"strings"
)

type StockType int

const (
	Common StockType = iota + 1
	Preferred
)

func (t StockType) String() string {
	switch t {
	case Common:
		return "Common"
	case Preferred:
		return "Preferred"
	default:
		return fmt.Sprintf("StockType(%d)", int(t))
	}
}

func (t StockType) Valid() bool {
	return t == Common || t == Preferred
}

func ParseStockType(s string) (StockType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return Common, nil
	case "preferred":
		return Preferred, nil
	}
	return 0, &ValidationError{Field: "stock_type", Value: s, Reason: "expected Common or Preferred"}
}
