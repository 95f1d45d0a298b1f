package board

// GenerateAllMoves returns every legal move for the side to move: stack
// moves plus placements.
func GenerateAllMoves(b *Board) []GameMove {
	moves := GenerateAllStackMoves(b)
	moves = append(moves, GenerateAllPlaceMoves(b)...)
	return moves
}

// GenerateAllPlaceMoves returns every legal placement. During the opening
// swap (ply 0 and 1) only flats of the placement color are legal: no
// walls or capstones may be played on a player's first turn.
func GenerateAllPlaceMoves(b *Board) []GameMove {
	color := b.PlacementColor()
	haveFlat := b.reserveFlats[color] > 0
	haveCap := b.reserveCaps[color] > 0
	swap := b.ply < 2

	var moves []GameMove
	empty := b.bits.Empty()
	for sq := empty; sq.Nonzero(); {
		bit := sq.PopLowest()
		index := bit.LowestIndex()

		if haveFlat {
			moves = append(moves, Placement(flatPiece(color), index))
			if !swap {
				moves = append(moves, Placement(wallPiece(color), index))
			}
		}
		if haveCap && !swap {
			moves = append(moves, Placement(capPiece(color), index))
		}
	}
	return moves
}

// GenerateAllStackMoves returns every legal stack (carry/drop) move for
// the side to move. There are none during the opening swap (ply 0 and 1),
// when each player's only legal move is a placement.
func GenerateAllStackMoves(b *Board) []GameMove {
	if b.ply < 2 {
		return nil
	}
	var moves []GameMove
	owned := b.bits.Owned(b.SideToMove())
	for sq := owned; sq.Nonzero(); {
		bit := sq.PopLowest()
		index := bit.LowestIndex()
		moves = generateStackMovesFrom(b, index, moves)
	}
	return moves
}

func generateStackMovesFrom(b *Board, src int, moves []GameMove) []GameMove {
	stack := b.stacks[src]
	height := stack.Len()
	limit := b.size.Dim()
	if height < limit {
		limit = height
	}

	for pickup := 1; pickup <= limit; pickup++ {
		segment := make([]Piece, pickup)
		for i := 0; i < pickup; i++ {
			// segment[0] is the bottom of the carry (dropped first),
			// segment[pickup-1] is the original top (dropped last).
			p, _ := stack.FromTop(pickup - 1 - i)
			segment[i] = p
		}

		for dir := North; dir <= West; dir++ {
			moves = generateDrops(b, src, src, dir, segment, nil, moves)
		}
	}
	return moves
}

// generateDrops recursively enumerates every way to partition segment
// into consecutive drops starting past sq, the last square reached so
// far (src itself before any drop). dropped is the running piece count
// already placed.
func generateDrops(b *Board, src, sq int, dir Direction, segment []Piece, drops []int, moves []GameMove) []GameMove {
	dropped := 0
	for _, d := range drops {
		dropped += d
	}
	remaining := len(segment) - dropped

	if remaining == 0 {
		moves = append(moves, StackMove(src, dir, len(segment), drops, false))
		return moves
	}

	next := step(b.size, sq, dir)
	if next < 0 {
		return moves
	}

	top, hasTop := b.stacks[next].Top()
	if hasTop && top.IsBlocker() {
		carriedTop := segment[len(segment)-1]
		if top.IsWall() && carriedTop.IsCap() && remaining == 1 {
			crushDrops := append(append([]int(nil), drops...), 1)
			moves = append(moves, StackMove(src, dir, len(segment), crushDrops, true))
		}
		return moves
	}

	for count := 1; count <= remaining; count++ {
		nextDrops := append(append([]int(nil), drops...), count)
		moves = generateDrops(b, src, next, dir, segment, nextDrops, moves)
	}
	return moves
}

// CanMakeRoad looks for a move that completes a road for color, trying
// first those moves in hint (tinue's top-moves cache, most recently
// successful candidates) that are legal in this position. It returns the
// full set of generated stack moves alongside the result so callers can
// reuse them without regenerating.
func CanMakeRoad(b *Board, color Color, hint []GameMove) (stackMoves []GameMove, win GameMove, ok bool) {
	stackMoves = GenerateAllStackMoves(b)
	placements := GenerateAllPlaceMoves(b)

	candidates := make([]GameMove, 0, len(hint)+len(stackMoves)+len(placements))
	for _, h := range hint {
		if containsMove(stackMoves, h) || containsMove(placements, h) {
			candidates = append(candidates, h)
		}
	}
	candidates = append(candidates, stackMoves...)
	candidates = append(candidates, placements...)

	for _, m := range candidates {
		rev := b.DoMove(m)
		made := b.bits.RoadPieces(color).CheckRoad()
		b.ReverseMove(rev)
		if made {
			return stackMoves, m, true
		}
	}
	return stackMoves, GameMove{}, false
}

// FindPlacementRoad reports whether placing a flat of color anywhere on an
// empty square would complete a road, returning the first such square
// found.
func FindPlacementRoad(b *Board, color Color) (int, bool) {
	empty := b.bits.Empty()
	for sq := empty; sq.Nonzero(); {
		bit := sq.PopLowest()
		index := bit.LowestIndex()

		b.stacks[index].Push(b.bits, flatPiece(color))
		made := b.bits.RoadPieces(color).CheckRoad()
		b.stacks[index].Pop(b.bits)

		if made {
			return index, true
		}
	}
	return 0, false
}

// GenerateAggressivePlaceMoves returns candidate placements for tak-threat
// generation: walls and capstones on every empty square reserves allow
// (post-swap), but flats only on empty squares adjacent to the mover's own
// road pieces. It is not a superset of the placements that create a tak
// threat: a flat placed away from the mover's road pieces can still create
// one (for example by leaving a single empty gap in an otherwise complete
// line), and such placements are not returned. GetTakThreats re-derives
// the true threat status of whatever this returns.
func GenerateAggressivePlaceMoves(b *Board) []GameMove {
	if b.ply < 2 {
		return GenerateAllPlaceMoves(b)
	}

	color := b.PlacementColor()
	haveFlat := b.reserveFlats[color] > 0
	haveCap := b.reserveCaps[color] > 0

	var moves []GameMove
	empty := b.bits.Empty()

	if haveFlat || haveCap {
		for sq := empty; sq.Nonzero(); {
			bit := sq.PopLowest()
			index := bit.LowestIndex()
			if haveFlat {
				moves = append(moves, Placement(wallPiece(color), index))
			}
			if haveCap {
				moves = append(moves, Placement(capPiece(color), index))
			}
		}
	}

	if haveFlat {
		own := b.bits.RoadPieces(color)
		frontier := own.Adjacent().And(empty)
		for sq := frontier; sq.Nonzero(); {
			bit := sq.PopLowest()
			index := bit.LowestIndex()
			moves = append(moves, Placement(flatPiece(color), index))
		}
	}
	return moves
}

// GetTakThreats filters candidates (those also in hint tried first) down to the moves
// after which color threatens to complete a road on its next turn,
// regardless of what the opponent plays in between: a Tak threat. This is
// a one-move lookahead for the mover only, via a null move (the opponent's
// intervening turn is skipped, not searched) — whether the opponent can
// actually parry every threat is the PNS AND-node's job (mid's defender
// expansion), not this function's. Folding a defender-reply search in here
// would double-count that quantifier and under-generate threats whose
// first move is individually blockable but still forces a reply, which is
// exactly what lets a chain of threats add up to tinue.
func GetTakThreats(b *Board, color Color, candidates []GameMove, hint []GameMove) []GameMove {
	ordered := make([]GameMove, 0, len(hint)+len(candidates))
	for _, h := range hint {
		if containsMove(candidates, h) {
			ordered = append(ordered, h)
		}
	}
	ordered = append(ordered, candidates...)

	var threats []GameMove
	seen := make(map[string]bool, len(ordered))
	for _, m := range ordered {
		key := m.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		rev := b.DoMove(m)
		threat := threatensRoad(b, color)
		b.ReverseMove(rev)

		if threat {
			threats = append(threats, m)
		}
	}
	return threats
}

// threatensRoad reports whether color has a road-completing move available
// immediately, ignoring whose turn it actually is. It plays a null move
// (skips the side now to move, without touching the board otherwise) so
// CanMakeRoad's move generation — which always generates for
// b.SideToMove() — runs as color rather than color's opponent.
func threatensRoad(b *Board, color Color) bool {
	ply := b.Ply()
	b.SetPly(ply + 1)
	_, _, ok := CanMakeRoad(b, color, nil)
	b.SetPly(ply)
	return ok
}

func containsMove(moves []GameMove, m GameMove) bool {
	for _, o := range moves {
		if o.Equals(m) {
			return true
		}
	}
	return false
}
