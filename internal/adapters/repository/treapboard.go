package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/pkg/metrics"
)

// Treap-backed, in-memory Board implementation.
//
// Ordering: overall score DESC, then athlete id ASC (deterministic).
// The comparator treats "less" as "ranks earlier", so an in-order walk
// yields the board from best to worst.

// scoreScale controls fixed-point scaling from float64. Overall scores
// live in [0, 100], so twelve decimal places fit comfortably in int64.
const scoreScale = 1_000_000_000_000

const defaultRefreshInterval = 5 * time.Second

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// record holds the fixed-point score plus evaluation metadata for an
// athlete's best showing.
type record struct {
	score    scoreFP
	name     string
	position types.Position
	tier     types.Tier
	evalID   string
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks earlier than (bScore, bID)
// on the board.
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		// Random priorities keep the tree balanced regardless of
		// insertion order.
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countGreater returns how many athletes hold a score strictly greater
// than s. Entries ranking earlier sit in left subtrees, so the walk
// descends comparing scores only.
func countGreater(n *node, s scoreFP) int {
	if n == nil {
		return 0
	}
	if n.score > s {
		return nsize(n.left) + 1 + countGreater(n.right, s)
	}
	return countGreater(n.left, s)
}

// collectTopN appends up to limit entries in board order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, entryFor(n.id, rec))
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

func entryFor(id string, rec record) Entry {
	return Entry{
		AthleteID: id,
		Name:      rec.name,
		Position:  rec.position,
		Tier:      rec.tier,
		Score:     toFloat(rec.score),
		EvalID:    rec.evalID,
	}
}

// assignRanks applies competition ranking to entries already in board
// order: tied scores share a rank and the next distinct score resumes
// at its ordinal position.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// TreapBoard is the in-memory Board backed by a size-augmented treap.
type TreapBoard struct {
	mu              sync.RWMutex
	root            *node
	byID            map[string]record
	refreshInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapBoard constructs the board and starts its background gauge
// refresher. The refresher stops when ctx is cancelled or Close is
// called.
func NewTreapBoard(ctx context.Context, opts ...Option) *TreapBoard {
	b := &TreapBoard{
		refreshInterval: defaultRefreshInterval,
		byID:            make(map[string]record),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.stopChan = make(chan struct{})
	b.startGaugeRefresher(ctx)

	return b
}

// Close shuts down the background refresher.
func (b *TreapBoard) Close() error {
	select {
	case <-b.stopChan:
		// already closed
	default:
		close(b.stopChan)
	}
	b.wg.Wait()
	return nil
}

// UpdateBest implements Board.UpdateBest in O(log n) expected time.
func (b *TreapBoard) UpdateBest(ctx context.Context, e Entry) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBoardUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	ns := toFixedPoint(e.Score)
	grew := false

	b.mu.Lock()
	if old, ok := b.byID[e.AthleteID]; ok {
		if ns <= old.score { // not an improvement
			b.mu.Unlock()
			return false, nil
		}
		b.root = deleteNode(b.root, e.AthleteID, old.score)
	} else {
		grew = true
	}
	b.byID[e.AthleteID] = record{
		score:    ns,
		name:     e.Name,
		position: e.Position,
		tier:     e.Tier,
		evalID:   e.EvalID,
	}
	b.root = insert(b.root, e.AthleteID, ns)
	b.mu.Unlock()

	metrics.RecordBoardUpdate()
	if grew {
		metrics.UpdateBoardAthletes(b.Count(ctx))
	}

	return true, nil
}

// Rank returns the board entry for one athlete in O(log n). Tied
// scores share the rank of the group's first entry, matching TopN.
func (b *TreapBoard) Rank(ctx context.Context, athleteID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBoardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.byID[athleteID]
	if !ok {
		metrics.RecordErrorByComponent("board", "not_found")
		return Entry{}, ErrNotFound
	}

	e := entryFor(athleteID, rec)
	e.Rank = countGreater(b.root, rec.score) + 1
	return e, nil
}

// TopN returns the best n entries in board order.
func (b *TreapBoard) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBoardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("board", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(b.root, n, b.byID, &out)
	assignRanks(out)
	return out, nil
}

// Count returns the number of athletes on the board.
func (b *TreapBoard) Count(ctx context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}

// startGaugeRefresher keeps the board size gauge current even when no
// updates arrive.
func (b *TreapBoard) startGaugeRefresher(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopChan:
				return
			case <-ticker.C:
				b.refreshGauges()
			}
		}
	}()
}

func (b *TreapBoard) refreshGauges() {
	b.mu.RLock()
	athletes := len(b.byID)
	b.mu.RUnlock()
	metrics.UpdateBoardAthletes(athletes)
}
