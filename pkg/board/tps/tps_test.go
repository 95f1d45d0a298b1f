package tps_test

import (
	"testing"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/corvidae/takproof/pkg/board/tps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInitial(t *testing.T) {
	b, err := tps.Decode(tps.Initial, 1)
	require.NoError(t, err)
	assert.Equal(t, board.Standard6, b.Size())
	assert.Equal(t, 0, b.Ply())
	assert.Equal(t, board.White, b.SideToMove())
	assert.Equal(t, board.Standard6.ReserveFlats(), b.ReserveFlats(board.White))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	in := "x2,2,x2,1/x5,1/x,2,x,1,1,1/x,2,x2,1,x/x,2C,x4/x,2,x4 2 6"
	b, err := tps.Decode(in, 1)
	require.NoError(t, err)

	assert.Equal(t, board.Black, b.SideToMove())
	assert.Equal(t, in, tps.Encode(b))
}

func TestDecodeStackWithModifier(t *testing.T) {
	in := "x3,1C,x2/x,1,x,1,x2/x,1,1,x,1,x/x3,1,x2/x3,1,x2/2C,2,22,x,2,x 1 9"
	b, err := tps.Decode(in, 1)
	require.NoError(t, err)
	assert.Equal(t, board.Standard6, b.Size())
	assert.Equal(t, in, tps.Encode(b))
}

func TestDecodeInvalidSections(t *testing.T) {
	_, err := tps.Decode("x6/x6/x6/x6/x6/x6 1", 1)
	assert.Error(t, err)
}
