// Package ranking provides the pure, deterministic algorithms behind the
// session engine: the comparison-driven binary insertion used to build a
// personal ranking, and the integer ELO arithmetic used for global ratings.
//
// The package is intentionally small and dependency-free:
//
//   - No logging and no persistence (callers own both)
//   - Value types only; every step returns a new state
//   - Deterministic: the same inputs always select the same comparison
//
// Rankings are ordered best-first: index 0 holds the most preferred card.
package ranking

// Insertion is the resumable state of a binary search that places one new
// card into an existing ranking. The open search interval is [Low, High) over
// ranking indices; each externally-resolved comparison halves it. When the
// interval is empty the insertion index is fully determined and no further
// comparison is needed.
//
// Placing the k-th card into a ranking of size k-1 therefore needs at most
// ceil(log2(k)) comparisons, which is what MaxComparisons computes.
type Insertion struct {
	// Card is the pending candidate being placed.
	Card string
	// Low and High bound the open search interval [Low, High).
	Low  int
	High int
}

// NewInsertion starts a binary insertion of card into a ranking of the given
// size. With size 0 the insertion is resolved immediately at index 0.
func NewInsertion(card string, size int) Insertion {
	return Insertion{Card: card, Low: 0, High: size}
}

// Resolved reports whether the search interval is empty, i.e. the insertion
// index is fully determined.
func (i Insertion) Resolved() bool { return i.Low >= i.High }

// Index returns the determined insertion index. Only meaningful once
// Resolved reports true.
func (i Insertion) Index() int { return i.Low }

// Mid returns the index of the ranked card the candidate must be compared
// against next. Only meaningful while the insertion is unresolved.
func (i Insertion) Mid() int { return (i.Low + i.High) / 2 }

// Opponent selects the comparison target from the ranking. It returns ""
// when the insertion is already resolved.
func (i Insertion) Opponent(rankedCards []string) string {
	if i.Resolved() || i.Mid() >= len(rankedCards) {
		return ""
	}
	return rankedCards[i.Mid()]
}

// Narrow consumes one comparison outcome. If the candidate won it belongs in
// the better (lower-index) half, otherwise below the midpoint. The returned
// state may be resolved.
func (i Insertion) Narrow(candidateWon bool) Insertion {
	mid := i.Mid()
	if candidateWon {
		i.High = mid
	} else {
		i.Low = mid + 1
	}
	return i
}

// InsertAt returns a new slice with card inserted at index, preserving the
// order of all existing elements. index is clamped to [0, len(rankedCards)].
func InsertAt(rankedCards []string, index int, card string) []string {
	if index < 0 {
		index = 0
	}
	if index > len(rankedCards) {
		index = len(rankedCards)
	}
	out := make([]string, 0, len(rankedCards)+1)
	out = append(out, rankedCards[:index]...)
	out = append(out, card)
	out = append(out, rankedCards[index:]...)
	return out
}

// MaxComparisons returns the worst-case number of comparisons needed to place
// a card into a ranking of the given size: ceil(log2(size+1)), and 0 for an
// empty ranking.
func MaxComparisons(size int) int {
	n := 0
	for c := 1; c < size+1; c <<= 1 {
		n++
	}
	return n
}
