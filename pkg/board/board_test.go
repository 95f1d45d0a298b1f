package board_test

import (
	"testing"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T, size board.Size) *board.Board {
	zt := board.NewZobristTable(size, 1)
	return board.NewBoard(size, zt)
}

// TestReverseMoveInvariant walks a random sequence of legal moves from the
// opening position and checks that DoMove/ReverseMove round-trips the hash
// and side to move at every step: spec.md property 1.
func TestReverseMoveInvariant(t *testing.T) {
	b := newTestBoard(t, board.Standard6)

	var path []board.RevGameMove
	for depth := 0; depth < 8; depth++ {
		if _, ok := b.Result(); ok {
			break
		}
		moves := board.GenerateAllMoves(b)
		require.NotEmpty(t, moves)

		m := moves[depth%len(moves)]
		before := b.Hash()
		rev := b.DoMove(m)
		path = append(path, rev)

		assert.NotEqual(t, before, b.Hash(), "hash must change after a move")
	}

	for i := len(path) - 1; i >= 0; i-- {
		b.ReverseMove(path[i])
	}

	fresh := newTestBoard(t, board.Standard6)
	assert.Equal(t, fresh.Hash(), b.Hash())
	assert.Equal(t, fresh.Ply(), b.Ply())
	assert.Equal(t, fresh.SideToMove(), b.SideToMove())
	assert.Equal(t, fresh.ReserveFlats(board.White), b.ReserveFlats(board.White))
	assert.Equal(t, fresh.ReserveCaps(board.White), b.ReserveCaps(board.White))
}

// TestBitboardDisjointness checks spec.md property 2 holds after the two
// opening placements.
func TestBitboardDisjointness(t *testing.T) {
	b := newTestBoard(t, board.Standard6)

	moves := board.GenerateAllMoves(b)
	require.NotEmpty(t, moves)
	b.DoMove(moves[0])

	moves = board.GenerateAllMoves(b)
	require.NotEmpty(t, moves)
	b.DoMove(moves[0])

	bits := b.Bits()
	assert.Zero(t, bits.White().And(bits.Black()).Bits())
	assert.Equal(t, bits.Flat().Or(bits.Wall()).Or(bits.Cap()).Bits(), bits.White().Or(bits.Black()).Bits())
}

// TestOpeningSwapPlacesOpponentFlat checks that the first placement by
// each side is of the opponent's color and that only flats are legal.
func TestOpeningSwapPlacesOpponentFlat(t *testing.T) {
	b := newTestBoard(t, board.Standard6)
	assert.Equal(t, board.Black, b.PlacementColor())

	moves := board.GenerateAllPlaceMoves(b)
	require.NotEmpty(t, moves)
	for _, m := range moves {
		assert.False(t, m.Piece.IsWall())
		assert.False(t, m.Piece.IsCap())
		assert.Equal(t, board.Black, m.Piece.Owner())
	}

	b.DoMove(moves[0])
	assert.Equal(t, board.White, b.PlacementColor())
}

// TestPerftConsistency checks spec.md property 4: perft(initial, depth) on
// the standard 6x6 board matches the published counts at depths 1-4.
func TestPerftConsistency(t *testing.T) {
	b := newTestBoard(t, board.Standard6)

	var perft func(depth int) uint64
	perft = func(depth int) uint64 {
		if depth == 0 {
			return 1
		}
		if _, ok := b.Result(); ok {
			return 0
		}
		moves := board.GenerateAllMoves(b)
		var total uint64
		for _, m := range moves {
			rev := b.DoMove(m)
			total += perft(depth - 1)
			b.ReverseMove(rev)
		}
		return total
	}

	want := []uint64{36, 1260, 132720, 13586048}
	for depth, w := range want {
		assert.Equal(t, w, perft(depth+1), "perft(%d)", depth+1)
	}
}

// TestStackMoveLegality checks spec.md property 5: carry limit, no blocker
// before the last drop, and crush set iff a capstone crushes a wall.
func TestStackMoveLegality(t *testing.T) {
	b := newTestBoard(t, board.Standard6)

	for i := 0; i < 6; i++ {
		moves := board.GenerateAllMoves(b)
		require.NotEmpty(t, moves)
		b.DoMove(moves[0])
	}

	n := b.Size().Dim()
	for _, m := range board.GenerateAllStackMoves(b) {
		assert.LessOrEqual(t, m.Pickup, n)

		sum := 0
		for _, d := range m.Drops {
			sum += d
		}
		assert.Equal(t, m.Pickup, sum)

		if m.Crush {
			assert.Equal(t, 1, m.Drops[len(m.Drops)-1])
		}
	}
}

// TestForkIsIndependent checks that mutating a forked board never affects
// the original, and vice versa.
func TestForkIsIndependent(t *testing.T) {
	b := newTestBoard(t, board.Standard6)
	b.DoMove(board.GenerateAllPlaceMoves(b)[0])

	fork := b.Fork()
	beforeHash := b.Hash()
	beforePly := b.Ply()

	moves := board.GenerateAllMoves(fork)
	require.NotEmpty(t, moves)
	fork.DoMove(moves[0])

	assert.NotEqual(t, fork.Hash(), b.Hash(), "mutating the fork must not change the original's hash")
	assert.Equal(t, beforeHash, b.Hash())
	assert.Equal(t, beforePly, b.Ply())
	assert.Equal(t, beforePly+1, fork.Ply())
}

// TestCheckRoadMatchesBoard runs CheckRoad on the board's own road-piece
// bitboard: no road on the empty board, a road once the bottom rank is
// filled with White flats.
func TestCheckRoadMatchesBoard(t *testing.T) {
	b := newTestBoard(t, board.Standard5)
	assert.False(t, b.Bits().RoadPieces(board.White).CheckRoad())

	for file := 0; file < 5; file++ {
		sq := board.NewSquare(board.Standard5, file, 0)
		b.Stack(int(sq)).Push(b.Bits(), board.WhiteFlat)
	}
	assert.True(t, b.Bits().RoadPieces(board.White).CheckRoad())
}
