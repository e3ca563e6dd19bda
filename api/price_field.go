package api

import (
	"fmt"
	"slices"
	"strings"

	"github.com/guregu/null/v6"

	ex "sharpe.service/extensions"
	m "sharpe.service/models"
)

// PriceField selects which bar cell the return series is built from.
type PriceField uint8

const (
	PriceFieldAdjustedClose PriceField = iota
	PriceFieldClose
	PriceFieldOpen
	PriceFieldHigh
	PriceFieldLow
)

var priceFields = []PriceField{
	PriceFieldAdjustedClose,
	PriceFieldClose,
	PriceFieldOpen,
	PriceFieldHigh,
	PriceFieldLow,
}

func (f PriceField) Name() string {
	switch f {
	case PriceFieldAdjustedClose:
		return "PriceFieldAdjustedClose"
	case PriceFieldClose:
		return "PriceFieldClose"
	case PriceFieldOpen:
		return "PriceFieldOpen"
	case PriceFieldHigh:
		return "PriceFieldHigh"
	case PriceFieldLow:
		return "PriceFieldLow"
	default:
		return ""
	}
}

func (f PriceField) Token() string {
	switch f {
	case PriceFieldAdjustedClose:
		return "adjclose"
	case PriceFieldClose:
		return "close"
	case PriceFieldOpen:
		return "open"
	case PriceFieldHigh:
		return "high"
	case PriceFieldLow:
		return "low"
	default:
		return ""
	}
}

func (f PriceField) FromBar(bar *m.PriceBar) null.Float {
	switch f {
	case PriceFieldAdjustedClose:
		return bar.AdjustedClose
	case PriceFieldClose:
		return bar.Close
	case PriceFieldOpen:
		return bar.Open
	case PriceFieldHigh:
		return bar.High
	case PriceFieldLow:
		return bar.Low
	default:
		return null.Float{}
	}
}

// spellings other tools use for the same cell
func (f PriceField) aliases() []string {
	switch f {
	case PriceFieldAdjustedClose:
		return []string{"adjclose", "adjustedclose", "adjusted_close", "adj_close"}
	default:
		return []string{f.Token()}
	}
}

// ParsePriceField accepts the canonical tokens plus common spellings like
// "Adj Close".
func ParsePriceField(token string) (PriceField, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(token)), " ", "")

	field, err := ex.FilterSingle(priceFields, func(f PriceField) bool {
		return slices.Contains(f.aliases(), normalized)
	})
	if err != nil {
		tokens := make([]string, len(priceFields))
		for i, f := range priceFields {
			tokens[i] = f.Token()
		}
		return 0, fmt.Errorf("unrecognized price field %q, valid fields are %s", token, strings.Join(tokens, ", "))
	}

	return field, nil
}
