// Package tinue implements proof-number search for Tak tinue (forced wins
// via chained tak threats).
package tinue

import (
	"go.uber.org/atomic"

	"github.com/corvidae/takproof/pkg/board"
	"github.com/corvidae/takproof/pkg/tinue/cache"
	"github.com/seekerror/stdlib/pkg/lang"
)

// infinity is the saturating bound used in place of true infinity, mirroring
// the Rust original's u32 const rather than using math.MaxUint32 directly,
// since delta values are summed and need headroom before saturating.
const infinity uint32 = 100_000_000

// Bounds is a proof/disproof number pair in Victor Allis's PN-search sense:
// Phi is the proof number (moves needed to prove), Delta the disproof
// number.
type Bounds struct {
	Phi, Delta uint32
}

func winningBounds() Bounds  { return Bounds{Phi: 0, Delta: infinity} }
func losingBounds() Bounds   { return Bounds{Phi: infinity, Delta: 0} }
func infiniteBounds() Bounds { return Bounds{Phi: infinity, Delta: infinity} }
func rootBounds() Bounds     { return Bounds{Phi: infinity / 2, Delta: infinity / 2} }

// child is one move explored from an AND/OR node, tracking the current
// bounds estimate for the position it leads to.
type child struct {
	bounds    Bounds
	move      board.GameMove
	hash      board.ZobristHash
	bestChild int
}

func newChild(bounds Bounds, move board.GameMove, hash board.ZobristHash) *child {
	return &child{bounds: bounds, move: move, hash: hash, bestChild: -1}
}

func (c *child) phi() uint32   { return c.bounds.Phi }
func (c *child) delta() uint32 { return c.bounds.Delta }

func (c *child) updateBounds(bounds Bounds, table map[board.ZobristHash]Bounds) {
	c.bounds = bounds
	table[c.hash] = bounds
}

func (c *child) updateBestChild(idx int, move board.GameMove, replies map[board.ZobristHash]board.GameMove) {
	c.bestChild = idx
	replies[c.hash] = move
}

// computeBounds folds a node's children into the node's own bounds: phi is
// the min child delta (the cheapest disproof becomes this node's proof
// cost if chosen by the opponent), delta the sum of child phis capped at
// infinity.
func computeBounds(children []*child) Bounds {
	out := Bounds{Phi: infinity, Delta: 0}
	for _, c := range children {
		if c.bounds.Delta < out.Phi {
			out.Phi = c.bounds.Delta
		}
		out.Delta += c.bounds.Phi
		if out.Delta > infinity {
			out.Delta = infinity
		}
	}
	return out
}

// topMoves remembers up to 3 distinct moves that have proven useful at a
// given search depth, tried first the next time that depth is reached.
type topMoves struct {
	moves []board.GameMove
}

const topMovesMaxSize = 3

func (t *topMoves) add(m board.GameMove) {
	if len(t.moves) >= topMovesMaxSize {
		return
	}
	for _, existing := range t.moves {
		if existing.Equals(m) {
			return
		}
	}
	t.moves = append(t.moves, m)
}

// attackerOutcome is the result of evaluating an attacker (OR) node's tak
// threats.
type attackerOutcome struct {
	hasRoad    bool
	road       board.GameMove
	takThreats []board.GameMove // empty and !hasRoad means no tak threats
}

// defenderOutcome is the result of evaluating a defender (AND) node's
// replies.
type defenderOutcome struct {
	canWin bool
	win    board.GameMove
	moves  []board.GameMove
}

// Options configures a Search.
type Options struct {
	// MaxNodes caps the number of positions visited. If unset, the search
	// runs to completion.
	MaxNodes lang.Optional[uint64]
	// Quiet has no effect: Search writes no output either way.
	Quiet bool
	// Store, if set, persists attacker-node evaluations across Search
	// instances (and process runs, for cache.BadgerStore). Nil means
	// every attacker node is evaluated fresh and cached only in memory
	// for the lifetime of this Search.
	Store cache.Store
	// Quit, if set, is checked alongside MaxNodes on every node visited.
	// A caller (pkg/engine's Handle.Halt) closes it to cancel a search
	// running on another goroutine; mid itself stays single-threaded.
	Quit <-chan struct{}
}

// Result is the outcome of a completed (non-aborted) search.
type Result struct {
	Tinue bool
	PV    []board.GameMove
	Nodes uint64
}

// Search runs proof-number search for tinue over a Board, rooted at
// whichever color is to move there. Not safe for concurrent use; each
// goroutine needs its own Search over its own forked Board.
type Search struct {
	b        *board.Board
	opts     Options
	attacker board.Color

	boundsTable   map[board.ZobristHash]Bounds
	tinueAttempts map[board.ZobristHash]attackerOutcome
	replies       map[board.ZobristHash]board.GameMove

	revMoves    []board.RevGameMove
	zobristHist []board.ZobristHash
	topMoves    []topMoves
	nodes       atomic.Uint64 // atomic: pkg/engine polls it from another goroutine while mid runs
	cacheHits   uint64
	cacheMisses uint64
}

// Nodes returns the number of positions visited so far. Safe to call from
// another goroutine while the search is running.
func (s *Search) Nodes() uint64 {
	return s.nodes.Load()
}

// New returns a Search rooted at b's current position and side to move.
func New(b *board.Board, opts Options) *Search {
	return &Search{
		b:             b,
		opts:          opts,
		attacker:      b.SideToMove(),
		boundsTable:   make(map[board.ZobristHash]Bounds),
		tinueAttempts: make(map[board.ZobristHash]attackerOutcome),
		replies:       make(map[board.ZobristHash]board.GameMove),
		topMoves:      make([]topMoves, 256),
	}
}

// IsTinue runs the search to completion (or until MaxNodes is exhausted)
// and reports whether the root position is tinue. ok is false if the search
// was aborted (node budget exhausted or Quit closed) before a verdict was
// reached.
func (s *Search) IsTinue() (tinue bool, ok bool) {
	root := newChild(rootBounds(), board.GameMove{}, s.b.Hash())
	s.mid(root, 0, true)

	if s.aborted() {
		return false, false
	}
	return root.delta() == infinity, true
}

// Run is a convenience wrapper bundling IsTinue with PV extraction into a
// Result, matching the shape callers (pkg/engine, cmd/tinue) consume.
func (s *Search) Run() (Result, bool) {
	tinue, ok := s.IsTinue()
	if !ok {
		return Result{}, false
	}
	return Result{Tinue: tinue, PV: s.PrincipalVariation(), Nodes: s.nodes.Load()}, true
}

// TinueEvaluateRoot runs tinueEvaluate at the root (depth 0) without
// recursing further. Exposed mainly for testing against the "HasRoad"
// scenario, where the root attacker already has a winning road move.
func (s *Search) TinueEvaluateRoot() (hasRoad bool, road board.GameMove, takThreats []board.GameMove) {
	outcome := s.tinueEvaluate(0)
	return outcome.hasRoad, outcome.road, outcome.takThreats
}

func (s *Search) aborted() bool {
	if max, ok := s.opts.MaxNodes.V(); ok && s.nodes.Load() > max {
		return true
	}
	if s.opts.Quit == nil {
		return false
	}
	select {
	case <-s.opts.Quit:
		return true
	default:
		return false
	}
}

// PrincipalVariation replays the best-reply chain recorded during the
// search from the root.
func (s *Search) PrincipalVariation() []board.GameMove {
	var hist []board.RevGameMove
	var pv []board.GameMove
	for {
		m, ok := s.replies[s.b.Hash()]
		if !ok {
			break
		}
		pv = append(pv, m)
		hist = append(hist, s.b.DoMove(m))
	}
	for i := len(hist) - 1; i >= 0; i-- {
		s.b.ReverseMove(hist[i])
	}
	return pv
}

func (s *Search) mid(c *child, depth int, isRoot bool) {
	s.nodes.Inc()
	if s.aborted() {
		return
	}

	if !isRoot {
		rev := s.b.DoMove(c.move)
		s.revMoves = append(s.revMoves, rev)
	}
	s.zobristHist = append(s.zobristHist, s.b.Hash())

	sideToMove := s.b.SideToMove()
	attacker := sideToMove == s.attacker

	if _, ok := s.b.FlatGame(); ok {
		eval := winningBounds()
		if attacker {
			eval = losingBounds()
		}
		c.updateBounds(eval, s.boundsTable)
		s.undoMove()
		return
	}

	var moves []board.GameMove
	if attacker {
		outcome, ok := s.tinueAttempts[s.b.Hash()]
		switch {
		case ok:
			s.cacheHits++
		case s.loadPersisted(&outcome):
			s.cacheHits++
			s.tinueAttempts[s.b.Hash()] = outcome
		default:
			s.cacheMisses++
			outcome = s.tinueEvaluate(depth)
			s.tinueAttempts[s.b.Hash()] = outcome
			s.storePersisted(outcome)
		}

		switch {
		case outcome.hasRoad:
			c.updateBounds(winningBounds(), s.boundsTable)
			s.undoMove()
			return
		case len(outcome.takThreats) == 0:
			c.updateBounds(losingBounds(), s.boundsTable)
			s.undoMove()
			return
		default:
			moves = outcome.takThreats
		}
	} else {
		hint := s.hintAt(depth)
		outcome := s.defenderResponses(hint)
		if outcome.canWin {
			s.topMoves[depth%len(s.topMoves)].add(outcome.win)
			c.updateBounds(winningBounds(), s.boundsTable)
			s.undoMove()
			return
		}
		moves = outcome.moves
	}

	childPNS := make([]*child, 0, len(moves))
	for _, m := range moves {
		if ch := s.initPNS(m, depth); ch != nil {
			childPNS = append(childPNS, ch)
		}
	}

	for {
		limit := computeBounds(childPNS)
		if c.phi() <= limit.Phi || c.delta() <= limit.Delta {
			c.updateBounds(limit, s.boundsTable)
			s.undoMove()
			return
		}

		bestIdx, secondBestDelta := selectChild(childPNS)
		c.updateBestChild(bestIdx, childPNS[bestIdx].move, s.replies)
		best := childPNS[bestIdx]
		updated := Bounds{
			Phi:   c.delta() + best.phi() - limit.Delta,
			Delta: min32(c.phi(), secondBestDelta+1),
		}
		best.updateBounds(updated, s.boundsTable)
		s.mid(best, depth+1, false)
	}
}

// selectChild returns the index of the child with the lowest delta (most
// promising to explore next) and the delta of the runner-up, short-
// circuiting once a child has phi==infinity (that child's mover cannot
// win, so this node is proven through it).
func selectChild(children []*child) (int, uint32) {
	bestIdx := 0
	best := children[0].bounds
	secondBest := infiniteBounds()

	for idx, c := range children {
		if idx == 0 {
			continue
		}
		if c.bounds.Delta < best.Delta {
			bestIdx = idx
			secondBest = best
			best = c.bounds
		} else if c.bounds.Delta < secondBest.Delta {
			secondBest = c.bounds
		}
		if c.bounds.Phi == infinity {
			return bestIdx, secondBest.Delta
		}
	}
	return bestIdx, secondBest.Delta
}

func (s *Search) initPNS(m board.GameMove, depth int) *child {
	sideToMove := s.b.SideToMove()
	attacker := sideToMove == s.attacker

	rev := s.b.DoMove(m)
	hash := s.b.Hash()

	var defaultBounds Bounds
	d := uint32(depth)
	switch {
	case attacker:
		// Child is a defensive (AND) node.
		defaultBounds = Bounds{Phi: 1, Delta: 30 + d*d}
	case m.IsPlacement:
		// Child is an offensive (OR) node reached by a placement.
		defaultBounds = Bounds{Phi: 20 + d*d, Delta: 1}
	default:
		// Child is an offensive (OR) node reached by a stack move.
		defaultBounds = Bounds{Phi: 10 + d*d, Delta: 1}
	}

	bounds, ok := s.boundsTable[hash]
	if !ok {
		bounds = defaultBounds
		s.boundsTable[hash] = bounds
	}

	c := newChild(bounds, m, hash)
	s.b.ReverseMove(rev)

	if attacker && contains(s.zobristHist, hash) {
		return nil
	}
	return c
}

func (s *Search) undoMove() {
	n := len(s.revMoves)
	if n == 0 {
		return
	}
	s.b.ReverseMove(s.revMoves[n-1])
	s.revMoves = s.revMoves[:n-1]
	s.zobristHist = s.zobristHist[:len(s.zobristHist)-1]
}

// tinueEvaluate computes the attacker's move set at the current (attacker
// to move) position: an immediate road win if one exists, else the set of
// tak threats (moves after which the attacker threatens a road next turn,
// regardless of the defender's reply), else none.
func (s *Search) tinueEvaluate(depth int) attackerOutcome {
	hint := s.hintAt(depth)
	stackMoves, win, ok := board.CanMakeRoad(s.b, s.b.SideToMove(), hint)
	if ok {
		s.topMoves[depth%len(s.topMoves)].add(win)
		return attackerOutcome{hasRoad: true, road: win}
	}

	board.SortByPriority(stackMoves, board.ScoreStackMoves(s.b, stackMoves))
	candidates := append(append([]board.GameMove(nil), stackMoves...), board.GenerateAggressivePlaceMoves(s.b)...)
	threatHint := s.hintAt(depth + 2)
	threats := board.GetTakThreats(s.b, s.b.SideToMove(), candidates, threatHint)
	if len(threats) == 0 {
		return attackerOutcome{}
	}

	idx := (depth + 2) % len(s.topMoves)
	for _, t := range threats {
		s.topMoves[idx].add(t)
	}
	return attackerOutcome{takThreats: threats}
}

// defenderResponses computes the defender's candidate replies at the
// current (defender to move) position: an immediate road win if the
// defender can make one (which disproves the attacker's last threat),
// else every move that blocks or competes for the road, plus a direct
// counter-placement if the attacker is one flat placement from winning.
func (s *Search) defenderResponses(hint []board.GameMove) defenderOutcome {
	color := s.b.SideToMove()
	stackMoves, win, ok := board.CanMakeRoad(s.b, color, hint)
	if ok {
		return defenderOutcome{canWin: true, win: win}
	}

	enemy := color.Opponent()
	attackSquare, attackOK := board.FindPlacementRoad(s.b, enemy)

	moves := append([]board.GameMove(nil), stackMoves...)
	for _, m := range board.GenerateAllPlaceMoves(s.b) {
		if m.Piece.IsBlocker() {
			moves = append(moves, m)
		}
	}
	if attackOK {
		moves = append(moves, board.Placement(flatPieceFor(color), attackSquare))
	}
	return defenderOutcome{moves: moves}
}

func flatPieceFor(c board.Color) board.Piece {
	if c == board.White {
		return board.WhiteFlat
	}
	return board.BlackFlat
}

// loadPersisted fills outcome from s.opts.Store for the current position
// and reports whether an entry was found. A no-op when no Store is set.
func (s *Search) loadPersisted(outcome *attackerOutcome) bool {
	if s.opts.Store == nil {
		return false
	}
	persisted, found := s.opts.Store.Get(s.b.Hash())
	if !found {
		return false
	}
	*outcome = attackerOutcome{
		hasRoad:    persisted.HasRoad,
		road:       persisted.Road,
		takThreats: persisted.TakThreats,
	}
	return true
}

// storePersisted writes outcome to s.opts.Store for the current position. A
// no-op when no Store is set.
func (s *Search) storePersisted(outcome attackerOutcome) {
	if s.opts.Store == nil {
		return
	}
	s.opts.Store.Put(s.b.Hash(), cache.AttackerOutcome{
		HasRoad:    outcome.hasRoad,
		Road:       outcome.road,
		TakThreats: outcome.takThreats,
	})
}

func (s *Search) hintAt(depth int) []board.GameMove {
	if depth < 0 {
		return nil
	}
	return s.topMoves[depth%len(s.topMoves)].moves
}

func contains(hist []board.ZobristHash, h board.ZobristHash) bool {
	for _, v := range hist {
		if v == h {
			return true
		}
	}
	return false
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
