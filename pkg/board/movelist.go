package board

import (
	"math"
	"sort"
)

// MovePriority represents a move's order priority. Higher sorts first.
type MovePriority int16

// MovePriorityFn assigns a priority to moves.
type MovePriorityFn func(move GameMove) MovePriority

// First puts the given move first. Otherwise uses the given function.
func First(first GameMove, fn MovePriorityFn) MovePriorityFn {
	return func(m GameMove) MovePriority {
		if first.Equals(m) {
			return math.MaxInt16
		}
		return fn(m)
	}
}

// SortByPriority sorts the moves by priority, preserving order for same priority.
func SortByPriority(moves []GameMove, fn MovePriorityFn) {
	sort.SliceStable(moves, func(i, j int) bool {
		return fn(moves[i]) > fn(moves[j])
	})
}

// ScoreStackMoves returns a MovePriorityFn favoring stack moves that cover
// an opponent's top piece and land the mover's own piece on top, over ones
// that do the reverse. Grounded on original_source/src/move_gen/
// move_order.rs's SmartMoveBuffer::score_stack_moves, ported from its
// per-step indexing to our per-square drop-count representation. Used by
// the tinue search to order stack-move candidates before threat generation
// (spec.md §4.F's top-moves hint is a pure ordering optimization; it must
// not change which threats are found, only how soon).
func ScoreStackMoves(b *Board, moves []GameMove) MovePriorityFn {
	owner := b.SideToMove()
	scores := make(map[string]MovePriority, len(moves))
	for _, m := range moves {
		if m.IsPlacement {
			continue
		}
		scores[m.String()] = scoreStackMove(b, owner, m)
	}
	return func(m GameMove) MovePriority {
		return scores[m.String()]
	}
}

func scoreStackMove(b *Board, owner Color, m GameMove) MovePriority {
	stack := b.Stack(m.From)
	segment := make([]Piece, m.Pickup)
	for i := 0; i < m.Pickup; i++ {
		p, _ := stack.FromTop(m.Pickup - 1 - i)
		segment[i] = p
	}

	var score MovePriority
	sq := m.From
	pos := 0
	for _, count := range m.Drops {
		sq = step(b.size, sq, m.Dir)

		if top, ok := b.Stack(sq).Top(); ok {
			if top.Owner() == owner {
				score--
			} else {
				score++
			}
		}

		covering := segment[pos+count-1]
		if covering.Owner() == owner {
			score += 2
		} else {
			score -= 2
		}
		pos += count
	}
	return score
}
