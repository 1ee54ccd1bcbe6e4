package money

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrConversion = errors.New("money conversion failed")

// Money is an amount in a single ISO 4217 currency.
type Money struct {
	Currency currency.Unit
	Amount   decimal.Decimal
}

func New(unit currency.Unit, amount decimal.Decimal) Money {
	return Money{Currency: unit, Amount: amount}
}

func Of(unit currency.Unit, amount float64) Money {
	return Money{Currency: unit, Amount: decimal.NewFromFloat(amount)}
}

// Parse builds a Money from an ISO currency code and a decimal string.
func Parse(code, amount string) (Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Money{}, fmt.Errorf("%w: currency %q: %v", ErrConversion, code, err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: amount %q: %v", ErrConversion, amount, err)
	}

	return Money{Currency: unit, Amount: d}, nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Currency == currency.Unit{} && m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Currency.String() + " " + m.Amount.StringFixed(scale(m.Currency))
}

type moneyJSON struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Currency: m.Currency.String(),
		Amount:   m.Amount.StringFixed(scale(m.Currency)),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := Parse(raw.Currency, raw.Amount)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

func scale(unit currency.Unit) int32 {
	digits, _ := currency.Standard.Rounding(unit)
	return int32(digits)
}
