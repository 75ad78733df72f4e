package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics NFD 分解后去掉组合音标，"comissão" -> "comissao"
func StripDiacritics(s string) string {
	// transform.Chain 带内部状态，不能跨 goroutine 复用
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText 小写、去音标、合并空白
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(StripDiacritics(s))), " ")
}
