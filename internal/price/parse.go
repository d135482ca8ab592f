package price

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoPrice = errors.New("no price found in text")

// Brazilian retail prices: "R$ 1.299,90", "399,99". A plain decimal
// ("12.99") is accepted as a fallback.
var priceRe = regexp.MustCompile(`\d{1,3}(?:\.\d{3})*,\d{2}|\d+,\d{2}|\d+(?:\.\d{1,2})?`)

// Parse extracts the first price from scraped text and returns it as a
// float. "1.299,90" parses to 1299.90.
func Parse(text string) (float64, error) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, ErrNoPrice
	}
	if strings.Contains(m, ",") {
		// pt-BR: dots are thousands separators, comma is the decimal mark.
		m = strings.ReplaceAll(m, ".", "")
		m = strings.Replace(m, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, ErrNoPrice
	}
	if v < 0 {
		return 0, ErrNoPrice
	}
	return v, nil
}
