package exchange

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns an exchange id such as "binance" into "Binance".
// A Caser is stateful, so each call gets its own.
func DisplayName(name string) string {
	return cases.Title(language.English).String(name)
}
