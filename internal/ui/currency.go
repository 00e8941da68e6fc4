package ui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// rupiahSymbol is followed by a no-break space, as in the id-ID currency format.
const rupiahSymbol = "Rp\u00a0"

// FormatRupiah renders an IDR amount without fractional digits, e.g. "Rp\u00a01.500.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-" + rupiahSymbol + rupiahPrinter.Sprintf("%d", uint64(-(amount+1))+1)
	}
	return rupiahSymbol + rupiahPrinter.Sprintf("%d", amount)
}
