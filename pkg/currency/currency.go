package currency

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
)

// PegRate is the fixed EUR/BGN conversion rate. It is a legally fixed peg,
// not a market rate, so no live FX lookup exists anywhere in the codebase.
var PegRate = decimal.RequireFromString("1.95583")

// Converter translates amounts between the store currency (EUR) and the
// carrier currency (BGN) at the fixed peg, rounding half-up to 2 places.
type Converter struct {
	rate decimal.Decimal
}

// NewConverter builds a converter at the default peg.
func NewConverter() Converter {
	return Converter{rate: PegRate}
}

// NewConverterWithRate builds a converter at a custom peg. A non-positive
// rate falls back to the default.
func NewConverterWithRate(rate decimal.Decimal) Converter {
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = PegRate
	}
	return Converter{rate: rate}
}

// StoreCurrency is the denomination amounts are stored and validated in.
func (c Converter) StoreCurrency() enums.Currency {
	return enums.CurrencyEUR
}

// CarrierCurrency is the denomination submitted to the carrier.
func (c Converter) CarrierCurrency() enums.Currency {
	return enums.CurrencyBGN
}

// ToCarrier converts a store-currency amount into carrier currency.
// Round-tripping through ToStore recovers the input to within 0.02.
func (c Converter) ToCarrier(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.rate).Round(2)
}

// ToStore converts a carrier-currency amount back into store currency.
func (c Converter) ToStore(amount decimal.Decimal) decimal.Decimal {
	return amount.DivRound(c.rate, 6).Round(2)
}
