// Package payment detects cash-on-delivery orders from gateway names.
package payment

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// gateway names vary by storefront locale and app; fold aggressively
// before matching so "COD", "Ｃｏｄ" and "Cash On Delivery (COD)" all hit
var codKeywords = []string{
	"cod",
	"cash on delivery",
	"cash-on-delivery",
	"ক্যাশ অন ডেলিভারি",
}

// manual payment gateways count as COD: there is no upstream capture,
// so the merchant carries the same non-delivery risk
var manualKeywords = []string{
	"manual",
}

var fold = cases.Fold()

func canon(s string) string {
	return fold.String(width.Fold.String(strings.TrimSpace(s)))
}

// IsCashOnDelivery reports whether any of the order's payment gateway
// names indicates cash on delivery
func IsCashOnDelivery(gateways []string) bool {
	for _, g := range gateways {
		c := canon(g)
		if c == "" {
			continue
		}
		for _, kw := range codKeywords {
			if strings.Contains(c, kw) {
				return true
			}
		}
		for _, kw := range manualKeywords {
			if c == kw {
				return true
			}
		}
	}
	return false
}
