package sched

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/trees/redblacktree"

	"tierq/internal/thread"
)

// Level identifies a ready tier. L1 is served first.
type Level int

const (
	L1 Level = iota + 1
	L2
	L3
)

// Priority band floors.
const (
	L1MinPriority = 100
	L2MinPriority = 50
)

func (l Level) String() string {
	switch l {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "-"
	}
}

// LevelFor classifies a priority into its tier.
func LevelFor(priority int) Level {
	switch {
	case priority >= L1MinPriority:
		return L1
	case priority >= L2MinPriority:
		return L2
	default:
		return L3
	}
}

// readyTier is one class of ready threads. Tiers only reference threads;
// the thread table owns them.
type readyTier interface {
	Insert(t *thread.Thread)
	RemoveFront() *thread.Thread
	Empty() bool
	Len() int
	Values() []*thread.Thread
}

// burstKey orders a sorted tier: shortest remaining burst estimate first,
// then insertion order for equal estimates.
type burstKey struct {
	remaining float64
	seq       uint64
}

func compareBurstKey(a, b any) int {
	ka, kb := a.(burstKey), b.(burstKey)
	switch {
	case ka.remaining < kb.remaining:
		return -1
	case ka.remaining > kb.remaining:
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

// sortedTier is a red-black tree keyed by burstKey. The key is taken at
// insertion time, so a thread keeps its place until it is removed.
type sortedTier struct {
	rbt *redblacktree.Tree
	seq uint64
}

func newSortedTier() *sortedTier {
	return &sortedTier{rbt: redblacktree.NewWith(compareBurstKey)}
}

func (q *sortedTier) Insert(t *thread.Thread) {
	q.seq++
	q.rbt.Put(burstKey{remaining: t.RemainingBurst(), seq: q.seq}, t)
}

func (q *sortedTier) RemoveFront() *thread.Thread {
	node := q.rbt.Left()
	if node == nil {
		return nil
	}
	q.rbt.Remove(node.Key)
	return node.Value.(*thread.Thread)
}

func (q *sortedTier) Empty() bool { return q.rbt.Empty() }
func (q *sortedTier) Len() int    { return q.rbt.Size() }

func (q *sortedTier) Values() []*thread.Thread {
	return toThreads(q.rbt.Values())
}

// fifoTier serves threads strictly in arrival order.
type fifoTier struct {
	q *linkedlistqueue.Queue
}

func newFIFOTier() *fifoTier {
	return &fifoTier{q: linkedlistqueue.New()}
}

func (q *fifoTier) Insert(t *thread.Thread) { q.q.Enqueue(t) }

func (q *fifoTier) RemoveFront() *thread.Thread {
	v, ok := q.q.Dequeue()
	if !ok {
		return nil
	}
	return v.(*thread.Thread)
}

func (q *fifoTier) Empty() bool { return q.q.Empty() }
func (q *fifoTier) Len() int    { return q.q.Size() }

func (q *fifoTier) Values() []*thread.Thread {
	return toThreads(q.q.Values())
}

func toThreads(vs []interface{}) []*thread.Thread {
	out := make([]*thread.Thread, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(*thread.Thread))
	}
	return out
}
