// Package board contains Tak board representation, move application and
// move generation.
package board

import "fmt"

// Board is a mutable Tak position: per-square stacks, the bitboard
// summaries derived from them, reserve counts and the ply counter. Not
// thread-safe; callers needing concurrent search fork/copy a Board per
// goroutine.
type Board struct {
	size  Size
	zt    *ZobristTable
	stacks []*Stack
	bits  *BitboardStorage

	reserveFlats [NumColors]int
	reserveCaps  [NumColors]int

	ply int
}

// NewBoard returns an empty board of the given size, ready to play from
// the opening position.
func NewBoard(size Size, zt *ZobristTable) *Board {
	n := size.NumSquares()
	stacks := make([]*Stack, n)
	for i := range stacks {
		stacks[i] = NewStack(i)
	}

	b := &Board{
		size:   size,
		zt:     zt,
		stacks: stacks,
		bits:   NewBitboardStorage(size, zt),
	}
	for c := ZeroColor; c < NumColors; c++ {
		b.reserveFlats[c] = size.ReserveFlats()
		b.reserveCaps[c] = size.ReserveCaps()
	}
	return b
}

func (b *Board) Size() Size { return b.size }

func (b *Board) Zobrist() *ZobristTable { return b.zt }

func (b *Board) Bits() *BitboardStorage { return b.bits }

func (b *Board) Ply() int { return b.ply }

func (b *Board) Stack(sq int) *Stack { return b.stacks[sq] }

// Fork returns a deep copy of b: an independent set of stacks and
// bitboards that a background search can mutate via DoMove/ReverseMove
// without affecting b. The Zobrist table is shared, since it is read-only
// once built.
func (b *Board) Fork() *Board {
	fork := *b

	bits := *b.bits
	fork.bits = &bits

	fork.stacks = make([]*Stack, len(b.stacks))
	for i, st := range b.stacks {
		fork.stacks[i] = st.Clone()
	}
	return &fork
}

// Hash is the Zobrist hash of the stacks, XORed with the side-to-move key.
func (b *Board) Hash() ZobristHash {
	return b.bits.Hash() ^ b.zt.Side(b.SideToMove())
}

// SideToMove returns the color whose turn it is to move.
func (b *Board) SideToMove() Color {
	if b.ply%2 == 0 {
		return White
	}
	return Black
}

// PlacementColor returns the color of stone that the side to move must
// place this turn. During the opening swap (the first ply for each
// player), each player places a stone of the opponent's color.
func (b *Board) PlacementColor() Color {
	if b.ply < 2 {
		return b.SideToMove().Opponent()
	}
	return b.SideToMove()
}

func (b *Board) ReserveFlats(c Color) int { return b.reserveFlats[c] }
func (b *Board) ReserveCaps(c Color) int  { return b.reserveCaps[c] }

// SetPly overrides the ply counter directly. Used by tps.Decode, which
// reconstructs a position's stacks piece-by-piece rather than via DoMove
// and must set the resulting ply explicitly, and by threatensRoad, which
// advances it by one as a null move and then restores it.
func (b *Board) SetPly(ply int) {
	b.ply = ply
}

// PlaceDecoded charges p against its owner's reserve without touching the
// stacks. Used only by tps.Decode alongside direct Stack.Push calls, which
// bypass DoMove's own reserve bookkeeping.
func (b *Board) PlaceDecoded(p Piece) {
	b.placeReserve(p)
}

func flatPiece(c Color) Piece {
	if c == White {
		return WhiteFlat
	}
	return BlackFlat
}

func wallPiece(c Color) Piece {
	if c == White {
		return WhiteWall
	}
	return BlackWall
}

func capPiece(c Color) Piece {
	if c == White {
		return WhiteCap
	}
	return BlackCap
}

func (b *Board) placeReserve(p Piece) {
	c := p.Owner()
	if p.IsCap() {
		b.reserveCaps[c]--
	} else {
		b.reserveFlats[c]--
	}
}

func (b *Board) unplaceReserve(p Piece) {
	c := p.Owner()
	if p.IsCap() {
		b.reserveCaps[c]++
	} else {
		b.reserveFlats[c]++
	}
}

// DoMove applies m and returns the information needed to reverse it.
func (b *Board) DoMove(m GameMove) RevGameMove {
	if m.IsPlacement {
		b.placeReserve(m.Piece)
		b.stacks[m.Square].Push(b.bits, m.Piece)
		b.ply++
		return RevGameMove{Move: m}
	}

	segment := b.stacks[m.From].SplitOff(b.bits, m.Pickup)

	visited := make([]int, 0, len(m.Drops))
	sq := m.From
	pos := 0 // index into segment of the next piece to drop (bottom-up)
	for i, count := range m.Drops {
		sq = step(b.size, sq, m.Dir)
		visited = append(visited, sq)

		last := i == len(m.Drops)-1
		if last && m.Crush {
			for ; count > 1; count-- {
				b.stacks[sq].Push(b.bits, segment[pos])
				pos++
			}
			b.stacks[sq].Push(b.bits, segment[pos])
			pos++
			b.stacks[sq].TryCrushWall(b.bits)
			continue
		}

		for ; count > 0; count-- {
			b.stacks[sq].Push(b.bits, segment[pos])
			pos++
		}
	}

	b.ply++
	return RevGameMove{Move: m, Visited: visited}
}

// ReverseMove undoes a move previously applied via DoMove.
func (b *Board) ReverseMove(rev RevGameMove) {
	b.ply--

	m := rev.Move
	if m.IsPlacement {
		p, _ := b.stacks[m.Square].Pop(b.bits)
		b.unplaceReserve(p)
		return
	}

	segment := make([]Piece, 0, m.Pickup)
	for i := len(m.Drops) - 1; i >= 0; i-- {
		sq := rev.Visited[i]
		count := m.Drops[i]

		last := i == len(m.Drops)-1
		if last && m.Crush {
			b.stacks[sq].UncrushWall(b.bits)
		}

		popped := make([]Piece, count)
		for j := count - 1; j >= 0; j-- {
			popped[j], _ = b.stacks[sq].Pop(b.bits)
		}
		// popped is bottom-to-top for this square's drop; prepend to segment
		// so segment ends up bottom-to-top for the whole original carry.
		segment = append(popped, segment...)
	}
	b.stacks[m.From].Extend(b.bits, segment)
}

// FlatGame checks for a non-road terminal condition: the board is full, or
// a player has exhausted their reserves. Ties in the flat count go to
// White, per the usual tiebreak convention.
func (b *Board) FlatGame() (GameResult, bool) {
	full := b.bits.Empty().PopCount() == 0
	whiteOut := b.reserveFlats[White] == 0 && b.reserveCaps[White] == 0
	blackOut := b.reserveFlats[Black] == 0 && b.reserveCaps[Black] == 0
	if !full && !whiteOut && !blackOut {
		return Undecided, false
	}

	whiteFlats := b.bits.White().And(b.bits.Flat()).PopCount()
	blackFlats := b.bits.Black().And(b.bits.Flat()).PopCount()
	switch {
	case whiteFlats > blackFlats:
		return WhiteFlatWin, true
	case blackFlats > whiteFlats:
		return BlackFlatWin, true
	default:
		return WhiteFlatWin, true
	}
}

// RoadGame checks whether either color currently has a completed road. A
// player can complete their opponent's road too (e.g. via a stack move),
// so both colors are checked; the side that just moved is reported first
// since simultaneous roads are resolved in the mover's favor.
func (b *Board) RoadGame() (GameResult, bool) {
	mover := b.SideToMove().Opponent()
	if b.bits.RoadPieces(mover).CheckRoad() {
		if mover == White {
			return WhiteRoadWin, true
		}
		return BlackRoadWin, true
	}

	other := mover.Opponent()
	if b.bits.RoadPieces(other).CheckRoad() {
		if other == White {
			return WhiteRoadWin, true
		}
		return BlackRoadWin, true
	}
	return Undecided, false
}

// Result reports the game outcome at the current position, if any, a road
// win taking precedence over a flat/reserve-exhaustion win.
func (b *Board) Result() (GameResult, bool) {
	if r, ok := b.RoadGame(); ok {
		return r, true
	}
	return b.FlatGame()
}

func (b *Board) String() string {
	return fmt.Sprintf("Board(%v, ply=%v, hash=%x)", b.size, b.ply, b.Hash())
}
