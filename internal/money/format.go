package money

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts for people, e.g. "USD 1,234.50".
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewFormatter builds a formatter for the given BCP 47 locale and ISO 4217 code.
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("money: locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("money: currency %q: %w", code, err)
	}
	return &Formatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

// Currency returns the ISO code in use.
func (f *Formatter) Currency() string {
	if f == nil {
		return ""
	}
	return f.unit.String()
}

// Format groups the integer part using the locale and keeps two decimals.
func (f *Formatter) Format(a Amount) string {
	if f == nil {
		return a.String()
	}
	rounded := a.Round().Decimal()
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(Scale).IntPart()
	grouped := f.printer.Sprintf("%d", whole.IntPart())
	return fmt.Sprintf("%s %s%s.%02d", f.unit.String(), sign, grouped, cents)
}
