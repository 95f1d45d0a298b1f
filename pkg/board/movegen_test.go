package board_test

import (
	"testing"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/corvidae/takproof/pkg/board/tps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCanMakeRoadFindsImmediateWin drives a near-road position (four White
// flats and a White capstone on the top rank, with one gap) through
// CanMakeRoad, which must find the winning placement among the generated
// moves.
func TestCanMakeRoadFindsImmediateWin(t *testing.T) {
	b, err := tps.Decode("1,1,1,1,x,1C/x6/x6/x6/x6/x6 1 6", 1)
	require.NoError(t, err)

	_, win, ok := board.CanMakeRoad(b, board.White, nil)
	require.True(t, ok)
	assert.True(t, win.IsPlacement)
	assert.Equal(t, board.WhiteFlat, win.Piece)
}

// TestGetTakThreatsEmptyWhenNoThreat checks that a quiet opening position
// has no tak threats for the side to move.
func TestGetTakThreatsEmptyWhenNoThreat(t *testing.T) {
	b := newTestBoard(t, board.Standard6)
	b.DoMove(board.GenerateAllPlaceMoves(b)[0])
	b.DoMove(board.GenerateAllPlaceMoves(b)[0])

	candidates := board.GenerateAggressivePlaceMoves(b)
	threats := board.GetTakThreats(b, b.SideToMove(), candidates, nil)
	assert.Empty(t, threats)
}

// TestGenerateAggressivePlaceMovesRestrictsFlats checks that, post-swap,
// flat placements are only generated adjacent to the mover's own road
// pieces. Wall and capstone placements are not checked here.
func TestGenerateAggressivePlaceMovesRestrictsFlats(t *testing.T) {
	b := newTestBoard(t, board.Standard6)
	b.DoMove(board.GenerateAllPlaceMoves(b)[0])
	b.DoMove(board.GenerateAllPlaceMoves(b)[0])

	moves := board.GenerateAggressivePlaceMoves(b)

	color := b.PlacementColor()
	own := b.Bits().RoadPieces(color)
	frontier := own.Adjacent()

	for _, m := range moves {
		if m.Piece.Owner() != color || m.Piece.IsBlocker() {
			continue
		}
		assert.True(t, frontier.Has(m.Square), "flat placement %v not adjacent to a road piece", m)
	}
}

// TestSortByPriorityOrdersDescendingAndPinsFirst checks the move-ordering
// primitive directly: higher priority moves sort first, ties keep their
// original order, and First() always pins its move to the front regardless
// of the underlying priority function.
func TestSortByPriorityOrdersDescendingAndPinsFirst(t *testing.T) {
	moves := []board.GameMove{
		board.Placement(board.WhiteFlat, 0),
		board.Placement(board.WhiteWall, 1),
		board.Placement(board.WhiteCap, 2),
	}

	fn := func(m board.GameMove) board.MovePriority {
		if m.Piece.IsBlocker() {
			return 1
		}
		return 0
	}

	board.SortByPriority(moves, board.First(moves[0], fn))
	require.Len(t, moves, 3)
	assert.True(t, moves[0].Equals(board.Placement(board.WhiteFlat, 0)), "First() should pin its move to the front")
	assert.True(t, moves[1].Equals(board.Placement(board.WhiteWall, 1)), "equal-priority blockers should keep their original order")
}

// TestGetTakThreatsFindsSingleBlockableButForcingThreat is the regression
// this fix targets: a move that gives the mover a road-in-one next turn is
// still a Tak threat even though the opponent has a reply (placing a
// blocker on the one remaining square) that stops it — whether the
// opponent survives across the whole line is the PNS AND-node's job, not
// GetTakThreats's. One rank has four White flats and two empty squares
// (e, f); filling either leaves the other as a one-move road completion.
func TestGetTakThreatsFindsSingleBlockableButForcingThreat(t *testing.T) {
	pos := "1,1,1,1,x,x/x6/x6/x6/x6/x6 1 6"
	b, err := tps.Decode(pos, 1)
	require.NoError(t, err)

	e := int(board.NewSquare(board.Standard6, 4, 5))
	f := int(board.NewSquare(board.Standard6, 5, 5))

	candidates := board.GenerateAllPlaceMoves(b)
	threats := board.GetTakThreats(b, board.White, candidates, nil)

	foundE, foundF := false, false
	for _, m := range threats {
		switch m.Square {
		case e:
			foundE = true
		case f:
			foundF = true
		}
	}
	assert.True(t, foundE, "placing at e should threaten completing the road at f next turn")
	assert.True(t, foundF, "placing at f should threaten completing the road at e next turn")
}

// TestScoreStackMovesFavorsCoveringOpponent checks that a stack move
// landing the mover's own piece on an opponent-owned square outscores one
// landing on the mover's own square.
func TestScoreStackMovesFavorsCoveringOpponent(t *testing.T) {
	b := newTestBoard(t, board.Standard6)
	owner := b.SideToMove()
	enemy := owner.Opponent()

	src := board.NewSquare(board.Standard6, 0, 0)
	ownSq := board.NewSquare(board.Standard6, 1, 0)
	enemySq := board.NewSquare(board.Standard6, 0, 1)

	b.Stack(int(src)).Push(b.Bits(), flatOf(owner))
	b.Stack(int(ownSq)).Push(b.Bits(), flatOf(owner))
	b.Stack(int(enemySq)).Push(b.Bits(), flatOf(enemy))

	toOwn := board.StackMove(int(src), board.East, 1, []int{1}, false)
	toEnemy := board.StackMove(int(src), board.North, 1, []int{1}, false)

	fn := board.ScoreStackMoves(b, []board.GameMove{toOwn, toEnemy})
	assert.Greater(t, fn(toEnemy), fn(toOwn))
}

func flatOf(c board.Color) board.Piece {
	if c == board.White {
		return board.WhiteFlat
	}
	return board.BlackFlat
}
