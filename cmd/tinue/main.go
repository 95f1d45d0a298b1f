// tinue is a one-shot CLI that decides whether a position is tinue: a
// forced win by road, proven via proof-number search. Unlike cmd/morlock's
// protocol-detecting driver, this is deliberately not a session loop — one
// position in, one verdict out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/seekerror/logw"

	"github.com/corvidae/takproof/pkg/board/ptn"
	"github.com/corvidae/takproof/pkg/engine"
	"github.com/corvidae/takproof/pkg/tinue"
	"github.com/corvidae/takproof/pkg/tinue/cache"
)

var (
	position = flag.String("tps", "", "Start position in TPS (default to standard 6x6 opening)")
	moves    = flag.String("moves", "", "PTN moves, '/'-separated, applied before search")
	nodes    = flag.Uint64("nodes", 0, "Node budget (0 for unlimited)")
	hash     = flag.String("hash", "", "Badger directory for a persistent attacker-node cache (default in-memory only)")
	seed     = flag.Int64("seed", 1, "Zobrist table seed")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: tinue [options]

tinue decides whether a Tak position is a forced win by road (tinue).
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	var store cache.Store
	if *hash != "" {
		s, err := cache.OpenBadgerStore(*hash)
		if err != nil {
			logw.Exitf(ctx, "Open hash dir %v: %v", *hash, err)
		}
		defer s.Close()
		store = s
	}

	e := engine.New(ctx, "tinue", "corvidae", engine.WithZobrist(*seed), engine.WithOptions(engine.Options{
		MaxNodes: *nodes,
		Store:    store,
	}))

	if *position != "" {
		if err := e.Reset(ctx, *position); err != nil {
			logw.Exitf(ctx, "Invalid tps %q: %v", *position, err)
		}
	}
	for _, m := range splitMoves(*moves) {
		if err := e.Move(ctx, m); err != nil {
			logw.Exitf(ctx, "Invalid move %q: %v", m, err)
		}
	}

	handle, progress, err := e.Solve(ctx)
	if err != nil {
		logw.Exitf(ctx, "Solve: %v", err)
	}

	start := time.Now()
	go func() {
		for p := range progress {
			logw.Infof(ctx, "nodes=%v elapsed=%v", p.Nodes, time.Since(start))
		}
	}()

	// SIGINT cancels an in-progress search via Halt; the normal path waits
	// for the search to finish on its own, since Halt always requests
	// cancellation and would otherwise race a long-running search to an
	// unconditional "unknown" verdict.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		if _, ok := <-sigCh; ok {
			handle.Halt()
		}
	}()

	result, ok := handle.Wait()
	signal.Stop(sigCh)
	close(sigCh)

	printResult(e, result, ok)
}

func splitMoves(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(s, "/") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func printResult(e *engine.Engine, result tinue.Result, ok bool) {
	if !ok {
		fmt.Println("tinue=unknown")
		return
	}

	pv := make([]string, len(result.PV))
	b := e.Board()
	for i, m := range result.PV {
		pv[i] = ptn.Format(m, b.Size())
		b.DoMove(m)
	}

	fmt.Printf("tinue=%v nodes=%v pv=%v\n", result.Tinue, result.Nodes, strings.Join(pv, "/"))
}
