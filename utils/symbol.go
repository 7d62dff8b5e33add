package utils

import "strings"

// NormalizeTicker maps an index-constituent ticker onto the symbol Yahoo
// Finance expects. Class shares are listed with a dot (BRK.B) while Yahoo
// uses a dash (BRK-B).
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.ReplaceAll(t, ".", "-")
}
