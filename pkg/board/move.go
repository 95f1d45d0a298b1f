package board

import "fmt"

// GameMove is a Tak move: either a placement of a reserve piece onto an
// empty square, or a stack move carrying pieces from one square in a
// cardinal direction and dropping them along the way.
type GameMove struct {
	IsPlacement bool

	// Placement fields.
	Piece  Piece
	Square int

	// Stack-move fields.
	From   int
	Dir    Direction
	Pickup int
	Drops  []int // per-square drop counts, in travel order, summing to Pickup
	Crush  bool  // true iff the final drop crushes a standing stone
}

// Placement returns the move that places p on sq.
func Placement(p Piece, sq int) GameMove {
	return GameMove{IsPlacement: true, Piece: p, Square: sq}
}

// StackMove returns the move that carries Pickup pieces from "from" in
// direction dir, dropping them per drops.
func StackMove(from int, dir Direction, pickup int, drops []int, crush bool) GameMove {
	return GameMove{From: from, Dir: dir, Pickup: pickup, Drops: drops, Crush: crush}
}

func (m GameMove) Equals(o GameMove) bool {
	if m.IsPlacement != o.IsPlacement {
		return false
	}
	if m.IsPlacement {
		return m.Piece == o.Piece && m.Square == o.Square
	}
	if m.From != o.From || m.Dir != o.Dir || m.Pickup != o.Pickup || m.Crush != o.Crush {
		return false
	}
	if len(m.Drops) != len(o.Drops) {
		return false
	}
	for i := range m.Drops {
		if m.Drops[i] != o.Drops[i] {
			return false
		}
	}
	return true
}

func (m GameMove) String() string {
	if m.IsPlacement {
		return fmt.Sprintf("place(%v@%v)", m.Piece, m.Square)
	}
	return fmt.Sprintf("move(%v,%v,n=%v,drops=%v,crush=%v)", m.From, m.Dir, m.Pickup, m.Drops, m.Crush)
}

// RevGameMove bundles a forward GameMove with the information needed to
// invert it via Board.ReverseMove.
type RevGameMove struct {
	Move GameMove

	// Visited holds the stack-move's destination squares in travel order.
	// Empty for placements, which need no extra state to reverse: the
	// square becomes empty again and the reserve is credited back.
	Visited []int
}
