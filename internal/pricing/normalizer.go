package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pricecomp/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// decimalLiteral accepts what is left after separator cleanup. A trailing
// point ("100.") is allowed and means an integer.
var decimalLiteral = regexp.MustCompile(`^\d+(?:\.\d*)?$`)

// NormalizationError reports a captured substring that is not a number
type NormalizationError struct {
	Raw     string
	Cleaned string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%v: %q (cleaned %q)", domain.ErrNormalization, e.Raw, e.Cleaned)
}

func (e *NormalizationError) Unwrap() error {
	return domain.ErrNormalization
}

// Normalize converts a captured numeric substring into an exact decimal.
// Whichever of '.' and ',' occurs last is the decimal separator; every
// occurrence of the other one is grouping and gets removed.
func Normalize(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	cleaned := s
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case lastDot > lastComma:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if !decimalLiteral.MatchString(cleaned) {
		return decimal.Zero, &NormalizationError{Raw: raw, Cleaned: cleaned}
	}

	d, err := decimal.NewFromString(strings.TrimSuffix(cleaned, "."))
	if err != nil {
		return decimal.Zero, &NormalizationError{Raw: raw, Cleaned: cleaned}
	}
	return d, nil
}
