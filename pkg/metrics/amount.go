package metrics

import "github.com/shopspring/decimal"

// CoinExponent is the number of decimal places between the smallest unit a
// node reports amounts in and a whole coin.
//
const CoinExponent = 8

// Amount converts an amount in the smallest unit into whole coins, exactly.
//
func Amount(smallest int64) decimal.Decimal {
	return decimal.New(smallest, -CoinExponent)
}

// Coins is Amount rounded to the float64 nearest to it, ready to be set on a
// gauge.
//
func Coins(smallest int64) float64 {
	f, _ := Amount(smallest).Float64()
	return f
}
