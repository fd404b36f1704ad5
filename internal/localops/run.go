package localops

import (
	"context"

	"github.com/JiancunWang/klayout/pkg/dssparallel"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// ModeAware is implemented by operations whose interaction table depends on
// a relation mode (inside/outside/overlap) rather than plain bbox
// overlap-or-touch (InteractingLocalOperation, PullLocalOperation).
type ModeAware interface {
	InteractionMode() (mode Mode, touching bool)
}

// buildInteractions selects the interaction table builder appropriate to op:
// mode-aware operations get the richer relation test, everything else (the
// Check family, the Edge/Text pull-and-interact family) gets plain
// bbox overlap-or-touch, since those intruder kinds have no "inside/outside"
// relation distinct from overlap.
func buildInteractions(op Operation, self, intruder []geom.Shape) *Interactions {
	if ma, ok := op.(ModeAware); ok {
		mode, touching := ma.InteractionMode()
		return buildModeInteractions(self, intruder, op.Dist(), mode, touching)
	}
	return Build(self, intruder, op.Dist(), true)
}

// Run executes op over one cluster's self/intruder shapes, honoring the
// empty-intruder shortcut and fanning the per-self-shape computation across
// threads workers (spec section 5: "downstream operators may run with up to
// threads workers").
func Run(ctx context.Context, op Operation, self, intruder []geom.Shape, threads int) [][]geom.Shape {
	if len(intruder) == 0 {
		switch op.OnEmptyIntruderHint() {
		case OnEmptyDrop:
			return make([][]geom.Shape, len(self))
		case OnEmptyCopySelf:
			out := make([][]geom.Shape, len(self))
			for i, s := range self {
				out[i] = []geom.Shape{s}
			}
			return out
		case OnEmptySkip:
			// fall through: the operation has no real use for an intruder
			// set (e.g. a width check against self), so it still runs.
		}
	}

	ix := buildInteractions(op, self, intruder)

	config := dssparallel.FromThreads(threads)
	if config.MaxWorkers <= 1 || len(self) <= 1 {
		return op.ComputeLocal(ix)
	}

	// Partition self indices across workers, each computing against the
	// shared Interactions table, then merge back in original order.
	chunks := partitionSelf(ix, config.MaxWorkers)
	_, _ = dssparallel.ForEach(ctx, chunks, config, func(_ context.Context, c *selfChunk) error {
		c.result = op.ComputeLocal(c.ix)
		return nil
	})

	merged := make([][]geom.Shape, len(self))
	offset := 0
	for _, c := range chunks {
		copy(merged[offset:offset+len(c.ix.Self)], c.result)
		offset += len(c.ix.Self)
	}
	return merged
}

type selfChunk struct {
	ix     *Interactions
	result [][]geom.Shape
}

// partitionSelf splits ix's self shapes into up to n contiguous chunks, each
// keeping the same intruder slice and only the relevant subset of pairs, so
// each worker can call ComputeLocal independently.
func partitionSelf(ix *Interactions, n int) []*selfChunk {
	if n < 1 {
		n = 1
	}
	total := len(ix.Self)
	if n > total {
		n = total
	}
	if n <= 0 {
		return nil
	}

	size := (total + n - 1) / n
	chunks := make([]*selfChunk, 0, n)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		sub := NewInteractions(ix.Self[start:end], ix.Intruder)
		for si := start; si < end; si++ {
			for _, ii := range ix.ForSelf(si) {
				sub.Connect(si-start, ii)
			}
		}
		chunks = append(chunks, &selfChunk{ix: sub})
	}
	return chunks
}
