package product

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SKUPrefix starts every generated SKU.
const SKUPrefix = "RIDAX"

// BuildSKUKey returns BRAND-TYPE-MEASURE with each segment folded to ASCII
// alphanumerics, upper-cased and truncated to 4/4/6 characters.
func BuildSKUKey(brand, productType, measure string) string {
	return normalizeSegment(brand, "GEN", 4) + "-" +
		normalizeSegment(productType, "GEN", 4) + "-" +
		normalizeSegment(measure, "NA", 6)
}

func normalizeSegment(value, fallback string, maxLen int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}

	var b strings.Builder
	for _, r := range norm.NFKD.String(value) {
		if r > unicode.MaxASCII {
			continue
		}
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == maxLen {
			break
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
