// Package tps contains utilities for reading and writing positions in Tak
// Positional System notation.
package tps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvidae/takproof/pkg/board"
)

// Initial is the empty opening position at the standard 6x6 size.
const Initial = "x6/x6/x6/x6/x6/x6 1 1"

// Decode returns a new board, holding a Zobrist table seeded with the
// given seed, from a TPS string.
//
// Example:
//
//	"x2,2,x2,1/x5,1/x,2,x,1,1,1/x,2,x2,1,x/x,2C,x4/x,2,x4 2 6"
func Decode(str string, seed int64) (*board.Board, error) {
	parts := strings.Split(strings.TrimSpace(str), " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid number of sections in TPS: %q", str)
	}

	// (1) Rows, top-row-first; within a row, cells are comma-separated and
	// leftmost is a-file.

	rows := strings.Split(parts[0], "/")
	size, ok := sizeOf(len(rows))
	if !ok {
		return nil, fmt.Errorf("invalid number of rows in TPS: %q", str)
	}

	// (2) Side to move: "1"=White, "2"=Black.

	side, ok := parseSide(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid side in TPS: %q", str)
	}

	// (3) Move number, 1-based.

	moveNumber, err := strconv.Atoi(parts[2])
	if err != nil || moveNumber < 1 {
		return nil, fmt.Errorf("invalid move number in TPS: %q", str)
	}

	zt := board.NewZobristTable(size, seed)
	b := board.NewBoard(size, zt)

	for rank, row := range rows {
		cells := strings.Split(row, ",")

		file := 0
		for _, cell := range cells {
			n, stack, modifier, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("invalid cell %q in TPS: %q: %w", cell, str, err)
			}
			if stack == "" {
				file += n
				continue
			}

			sq := board.NewSquare(size, file, size.Dim()-1-rank)
			if !sq.IsValid(size) {
				return nil, fmt.Errorf("square out of bounds in TPS: %q", str)
			}

			pieces, err := piecesForStack(stack, modifier)
			if err != nil {
				return nil, fmt.Errorf("invalid stack %q in TPS: %q: %w", cell, str, err)
			}
			for _, p := range pieces {
				b.Stack(int(sq)).Push(b.Bits(), p)
				b.PlaceDecoded(p)
			}
			file++
		}
		if file != size.Dim() {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %q", rank, file, size.Dim(), str)
		}
	}

	ply := 2*(moveNumber-1) + sideOffset(side)
	b.SetPly(ply)

	return b, nil
}

// Encode renders b as a TPS string.
func Encode(b *board.Board) string {
	size := b.Size()
	n := size.Dim()

	var rows []string
	for rank := n - 1; rank >= 0; rank-- {
		var cells []string
		blanks := 0
		for file := 0; file < n; file++ {
			sq := board.NewSquare(size, file, rank)
			st := b.Stack(int(sq))
			if st.IsEmpty() {
				blanks++
				continue
			}
			if blanks > 0 {
				cells = append(cells, "x"+optionalCount(blanks))
				blanks = 0
			}
			cells = append(cells, renderStack(st))
		}
		if blanks > 0 {
			cells = append(cells, "x"+optionalCount(blanks))
		}
		rows = append(rows, strings.Join(cells, ","))
	}

	side := b.SideToMove()
	moveNumber := b.Ply()/2 + 1

	return fmt.Sprintf("%v %v %v", strings.Join(rows, "/"), side, moveNumber)
}

func optionalCount(n int) string {
	if n == 1 {
		return ""
	}
	return strconv.Itoa(n)
}

func renderStack(st *board.Stack) string {
	var sb strings.Builder
	for i := 0; i < st.Len(); i++ {
		p, _ := st.FromTop(st.Len() - 1 - i)
		if p.Owner() == board.White {
			sb.WriteRune('1')
		} else {
			sb.WriteRune('2')
		}
	}
	top, _ := st.Top()
	switch {
	case top.IsCap():
		sb.WriteRune('C')
	case top.IsWall():
		sb.WriteRune('S')
	}
	return sb.String()
}

func sizeOf(numRows int) (board.Size, bool) {
	s := board.Size(numRows)
	if !s.IsValid() {
		return 0, false
	}
	return s, true
}

func parseSide(str string) (board.Color, bool) {
	switch str {
	case "1":
		return board.White, true
	case "2":
		return board.Black, true
	default:
		return 0, false
	}
}

func sideOffset(c board.Color) int {
	if c == board.White {
		return 0
	}
	return 1
}

// parseCell splits a cell into either a blank run (n>0, stack=="") or a
// piece stack with an optional top-piece modifier.
func parseCell(cell string) (n int, stack, modifier string, err error) {
	if cell == "" {
		return 0, "", "", fmt.Errorf("empty cell")
	}
	if cell[0] == 'x' {
		rest := cell[1:]
		if rest == "" {
			return 1, "", "", nil
		}
		count, err := strconv.Atoi(rest)
		if err != nil || count < 1 {
			return 0, "", "", fmt.Errorf("invalid blank count")
		}
		return count, "", "", nil
	}

	body := cell
	if last := cell[len(cell)-1]; last == 'C' || last == 'S' {
		modifier = string(last)
		body = cell[:len(cell)-1]
	}
	if body == "" {
		return 0, "", "", fmt.Errorf("empty stack")
	}
	for _, r := range body {
		if r != '1' && r != '2' {
			return 0, "", "", fmt.Errorf("invalid piece digit %q", r)
		}
	}
	return 0, body, modifier, nil
}

// piecesForStack converts a bottom-first digit string plus an optional top
// modifier into the ordered pieces to Push, bottom-first.
func piecesForStack(stack, modifier string) ([]board.Piece, error) {
	pieces := make([]board.Piece, len(stack))
	for i, r := range stack {
		switch r {
		case '1':
			pieces[i] = board.WhiteFlat
		case '2':
			pieces[i] = board.BlackFlat
		}
	}

	top := len(pieces) - 1
	switch modifier {
	case "C":
		if pieces[top] == board.WhiteFlat {
			pieces[top] = board.WhiteCap
		} else {
			pieces[top] = board.BlackCap
		}
	case "S":
		if pieces[top] == board.WhiteFlat {
			pieces[top] = board.WhiteWall
		} else {
			pieces[top] = board.BlackWall
		}
	case "":
		// top stays a flat.
	default:
		return nil, fmt.Errorf("invalid modifier %q", modifier)
	}
	return pieces, nil
}
