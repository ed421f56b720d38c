package cart

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/medibook/medibook-backend/pkg/enums"
)

var vndPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount with Vietnamese digit grouping, e.g. "35.000 ₫".
func FormatVND(amount int64) string {
	return vndPrinter.Sprintf("%d", amount) + " " + enums.CurrencyVND.Symbol()
}
