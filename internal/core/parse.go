package core

import (
	"errors"
	"regexp"
	"strconv"
)

// DefaultUnitKeyword matches reports like "Saya panen 10000 butir telur ikan".
const DefaultUnitKeyword = "butir"

// QuantityParser extracts an integer quantity from free-form text: the
// first digit run followed (optionally across whitespace) by the unit
// keyword, case-insensitive.
type QuantityParser struct {
	re *regexp.Regexp
}

// NewQuantityParser compiles a parser for the given unit keyword. An
// empty keyword falls back to DefaultUnitKeyword.
func NewQuantityParser(unit string) *QuantityParser {
	if unit == "" {
		unit = DefaultUnitKeyword
	}
	return &QuantityParser{
		re: regexp.MustCompile(`(?i)(\d+)\s*` + regexp.QuoteMeta(unit)),
	}
}

// Parse returns the first quantity found in text. ErrNoQuantity means
// the pattern does not occur; ErrQuantityOutOfRange means the digit run
// does not fit in int64. Zero is a valid quantity.
func (p *QuantityParser) Parse(text string) (int64, error) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrNoQuantity
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrQuantityOutOfRange
		}
		return 0, ErrNoQuantity
	}
	return n, nil
}
