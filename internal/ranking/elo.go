// Package ranking – ELO arithmetic.
//
// Ratings are kept as integers. A decisive comparison moves the winner up and
// the loser down by K times the surprise of the outcome, rounded
// independently per side; the two deltas cancel before rounding, so the pair
// sum drifts by at most one point per update.
package ranking

import "math"

// ExpectedScore returns the logistic expected score of a player rated
// `rating` against `opponent`, using the standard formula
//
//	E = 1 / (1 + 10^((opponent-rating)/divisor))
//
// The result is in (0, 1); 0.5 for equal ratings.
func ExpectedScore(rating, opponent, divisor int) float64 {
	if divisor <= 0 {
		divisor = 400
	}
	return 1.0 / (1.0 + math.Pow(10, float64(opponent-rating)/float64(divisor)))
}

// UpdateElo folds one decisive comparison into the pair of ratings and
// returns the new (winner, loser) ratings.
//
// Invariants: newWinner >= winner and newLoser <= loser, with equality when
// the rounded adjustment is zero (an already overwhelming favourite winning).
func UpdateElo(winner, loser, k, divisor int) (newWinner, newLoser int) {
	ew := ExpectedScore(winner, loser, divisor)
	el := ExpectedScore(loser, winner, divisor)

	up := int(math.Round(float64(k) * (1.0 - ew)))
	down := int(math.Round(float64(k) * el))
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	return winner + up, loser - down
}
