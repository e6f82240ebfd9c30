package domain

// PotentialProfit returns the absolute and percentage move from entry to the
// first take-profit, sign-correct for the direction. A zero entry yields zeros
// rather than a division by zero.
func PotentialProfit(direction Direction, entry, tp1 float64) (abs, pct float64) {
	if entry == 0 || tp1 == 0 {
		return 0, 0
	}
	if direction == DirectionBuy {
		abs = tp1 - entry
	} else {
		abs = entry - tp1
	}
	return abs, abs / entry * 100
}

// PotentialLoss returns the absolute and percentage move from entry to the
// stop loss, sign-correct for the direction.
func PotentialLoss(direction Direction, entry, sl float64) (abs, pct float64) {
	if entry == 0 || sl == 0 {
		return 0, 0
	}
	if direction == DirectionBuy {
		abs = entry - sl
	} else {
		abs = sl - entry
	}
	return abs, abs / entry * 100
}
