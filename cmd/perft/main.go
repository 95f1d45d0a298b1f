// perft is a move generation debugging tool. See:
// https://www.chessprogramming.org/Perft_Results (the technique carries
// over to Tak unchanged: count leaf positions reachable at a fixed depth
// and compare against known-good counts).
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/seekerror/logw"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/corvidae/takproof/pkg/board/ptn"
	"github.com/corvidae/takproof/pkg/board/tps"
)

var (
	depth    = flag.Int("depth", 4, "Search depth")
	position = flag.String("tps", "", "Start position in TPS (default to standard 6x6 opening)")
	seed     = flag.Int64("seed", 1, "Zobrist table seed")
	divide   = flag.Bool("divide", false, "Divide counts by initial move")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	if *position == "" {
		*position = tps.Initial
	}

	b, err := tps.Decode(*position, *seed)
	if err != nil {
		logw.Exitf(ctx, "Invalid tps %q: %v", *position, err)
	}

	for i := 1; i <= *depth; i++ {
		start := time.Now()
		nodes := search(b, i, *divide && i == *depth)
		duration := time.Since(start)

		println(fmt.Sprintf("perft,%v,%v,%v,%v", *position, i, nodes, duration.Microseconds()))
	}
}

func search(b *board.Board, depth int, d bool) int64 {
	if depth == 0 {
		return 1
	}
	if _, ok := b.Result(); ok {
		return 0
	}

	var nodes int64
	for _, m := range board.GenerateAllMoves(b) {
		rev := b.DoMove(m)
		count := search(b, depth-1, false)
		b.ReverseMove(rev)

		if d {
			println(fmt.Sprintf("%v: %v", ptn.Format(m, b.Size()), count))
		}
		nodes += count
	}
	return nodes
}
