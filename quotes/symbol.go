package quotes

import "strings"

// NormalizeSymbol trim and upper case a raw ticker. An empty result means the
// record carries no usable symbol.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
