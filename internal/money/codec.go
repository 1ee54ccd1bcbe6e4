package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Codec converts Money to and from the BIGINT minor-unit column used by the
// storage layer. Only the magnitude is stored, so a Codec is bound to one
// currency for the whole deployment.
type Codec struct {
	unit  currency.Unit
	scale int32
}

func NewCodec(unit currency.Unit) Codec {
	return Codec{unit: unit, scale: scale(unit)}
}

func (c Codec) Currency() currency.Unit {
	return c.unit
}

// Encode returns the amount in minor units. It fails rather than rounding
// when the amount carries more fractional digits than the currency allows.
func (c Codec) Encode(m Money) (int64, error) {
	if m.Currency != c.unit {
		return 0, fmt.Errorf("%w: currency %s, want %s", ErrConversion, m.Currency, c.unit)
	}

	minor := m.Amount.Shift(c.scale)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d fractional digits", ErrConversion, m.Amount, c.scale)
	}

	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s overflows the storage column", ErrConversion, m.Amount)
	}

	return minor.IntPart(), nil
}

// Decode rebuilds Money from a stored scalar using the codec currency.
func (c Codec) Decode(src any) (Money, error) {
	var minor decimal.Decimal

	switch v := src.(type) {
	case int64:
		minor = decimal.NewFromInt(v)
	case int32:
		minor = decimal.NewFromInt32(v)
	case int:
		minor = decimal.NewFromInt(int64(v))
	case []byte:
		return c.Decode(string(v))
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Money{}, fmt.Errorf("%w: %q is not a decimal", ErrConversion, v)
		}
		if !d.IsInteger() {
			return Money{}, fmt.Errorf("%w: %q is not a whole number of minor units", ErrConversion, v)
		}
		minor = d
	case nil:
		return Money{}, fmt.Errorf("%w: null amount", ErrConversion)
	default:
		return Money{}, fmt.Errorf("%w: unsupported type %T", ErrConversion, src)
	}

	return Money{Currency: c.unit, Amount: minor.Shift(-c.scale)}, nil
}
