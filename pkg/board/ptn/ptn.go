// Package ptn contains utilities for reading and writing moves in Portable
// Tak Notation.
package ptn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvidae/takproof/pkg/board"
)

// Parse converts PTN move text into a GameMove, resolved against b (needed
// for the board size and, for a placement, the placement color). A stack
// move whose text omits the pickup count carries 1 piece; one that omits
// the drop counts drops every carried piece on the first square. It does not
// check legality; callers should match the result against the generator's
// output before applying it.
func Parse(str string, b *board.Board) (board.GameMove, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return board.GameMove{}, fmt.Errorf("empty move")
	}

	if isPlacement(str) {
		return parsePlacement(str, b)
	}
	return parseStackMove(str, b)
}

// Format renders m in PTN text at the given board size.
func Format(m board.GameMove, size board.Size) string {
	if m.IsPlacement {
		sq := board.Square(m.Square).String(size)
		switch {
		case m.Piece.IsCap():
			return "C" + sq
		case m.Piece.IsWall():
			return "S" + sq
		default:
			return sq
		}
	}

	var sb strings.Builder
	if m.Pickup > 1 {
		sb.WriteString(strconv.Itoa(m.Pickup))
	}
	sb.WriteString(board.Square(m.From).String(size))
	sb.WriteString(m.Dir.String())

	if len(m.Drops) > 1 || m.Drops[0] != m.Pickup {
		for _, d := range m.Drops {
			sb.WriteString(strconv.Itoa(d))
		}
	}
	if m.Crush {
		sb.WriteRune('*')
	}
	return sb.String()
}

// isPlacement reports whether str has no direction glyph; every stack move
// has one, with or without a leading pickup count.
func isPlacement(str string) bool {
	return !strings.ContainsAny(str, "+-<>")
}

func parsePlacement(str string, b *board.Board) (board.GameMove, error) {
	body := str
	modifier := byte(0)
	if str[0] == 'C' || str[0] == 'S' {
		modifier = str[0]
		body = str[1:]
	}

	sq, err := board.ParseSquare(b.Size(), body)
	if err != nil {
		return board.GameMove{}, fmt.Errorf("invalid placement %q: %w", str, err)
	}

	color := b.PlacementColor()
	var p board.Piece
	switch modifier {
	case 'C':
		if color == board.White {
			p = board.WhiteCap
		} else {
			p = board.BlackCap
		}
	case 'S':
		if color == board.White {
			p = board.WhiteWall
		} else {
			p = board.BlackWall
		}
	default:
		if color == board.White {
			p = board.WhiteFlat
		} else {
			p = board.BlackFlat
		}
	}
	return board.Placement(p, int(sq)), nil
}

// parseStackMove parses "[n]?<file><rank><dir>[drops]*[*]?".
func parseStackMove(str string, b *board.Board) (board.GameMove, error) {
	runes := []rune(str)
	i := 0

	pickup := 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		pickup = pickup*10 + int(runes[i]-'0')
		i++
	}

	if i+2 > len(runes) {
		return board.GameMove{}, fmt.Errorf("invalid stack move %q", str)
	}
	sq, err := board.ParseSquare(b.Size(), string(runes[i:i+2]))
	if err != nil {
		return board.GameMove{}, fmt.Errorf("invalid stack move %q: %w", str, err)
	}
	i += 2

	if i >= len(runes) {
		return board.GameMove{}, fmt.Errorf("missing direction in %q", str)
	}
	dir, ok := board.ParseDirection(runes[i])
	if !ok {
		return board.GameMove{}, fmt.Errorf("invalid direction in %q", str)
	}
	i++

	crush := false
	if len(runes) > 0 && runes[len(runes)-1] == '*' {
		crush = true
		runes = runes[:len(runes)-1]
	}

	var drops []int
	for ; i < len(runes); i++ {
		if runes[i] < '0' || runes[i] > '9' {
			return board.GameMove{}, fmt.Errorf("invalid drop digit in %q", str)
		}
		drops = append(drops, int(runes[i]-'0'))
	}

	if pickup == 0 {
		pickup = 1
	}
	if len(drops) == 0 {
		drops = []int{pickup}
	}

	sum := 0
	for _, d := range drops {
		sum += d
	}
	if sum != pickup {
		return board.GameMove{}, fmt.Errorf("drops %v do not sum to pickup %v in %q", drops, pickup, str)
	}

	return board.StackMove(int(sq), dir, pickup, drops, crush), nil
}
