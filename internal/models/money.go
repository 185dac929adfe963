package models

import "github.com/shopspring/decimal"

// Prices and totals go over the wire as JSON numbers, like the storefront expects.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
