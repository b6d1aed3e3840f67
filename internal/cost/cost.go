// Package cost converts token counts into estimated spend.
// Amounts are display estimates, not billing-accurate figures.
package cost

import (
	"github.com/shopspring/decimal"

	"github.com/alnah/go-translate/internal/tokenizer"
)

var thousand = decimal.NewFromInt(1000)

// DefaultPricePer1K is the USD price per 1000 tokens used when none is configured.
var DefaultPricePer1K = decimal.RequireFromString("0.002")

// Estimate is a token count paired with its estimated cost.
type Estimate struct {
	Tokens int
	Cost   decimal.Decimal
}

// Compute returns tokens / 1000 * pricePer1000 without rounding.
// Negative token counts are treated as zero.
func Compute(tokens int, pricePer1000 decimal.Decimal) decimal.Decimal {
	if tokens <= 0 {
		return decimal.Zero
	}
	// Multiply first so the division by 1000 stays exact.
	return decimal.NewFromInt(int64(tokens)).Mul(pricePer1000).Div(thousand)
}

// ForText counts the tokens in text and prices them.
func ForText(counter tokenizer.Counter, text string, pricePer1000 decimal.Decimal) Estimate {
	n := counter.Count(text)
	return Estimate{Tokens: n, Cost: Compute(n, pricePer1000)}
}

// Add returns the sum of two estimates.
func (e Estimate) Add(o Estimate) Estimate {
	return Estimate{Tokens: e.Tokens + o.Tokens, Cost: e.Cost.Add(o.Cost)}
}

// ParsePrice parses a decimal price such as "0.002".
func ParsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
