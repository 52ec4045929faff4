package model

import "github.com/shopspring/decimal"

// Amounts travel as JSON numbers in both directions.  The upstream backend
// sometimes sends prices as strings ("45000.00"); decimal accepts either form
// when decoding.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
