package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// 決済代行に渡す最小通貨単位（セント）。
// ×100して四捨五入（0.5は切り上げ）。
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// 明細の合計
func SumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
