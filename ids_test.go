package flowchart

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericID(t *testing.T) {
	for id, want := range map[string]int{"node_57": 57, "step_3": 3, "12": 12} {
		n, ok := NumericID(id)
		assert.True(t, ok, id)
		assert.Equal(t, want, n, id)
	}
	for _, id := range []string{"start", "end", "", "node_"} {
		_, ok := NumericID(id)
		assert.False(t, ok, id)
	}
}

func TestStepID_RoundTrip(t *testing.T) {
	assert.Equal(t, "step_42", StepID(42))
	n, err := ParseStepID("step_42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = ParseStepID("node_42")
	assert.Error(t, err)
	_, err = ParseStepID("step_x")
	assert.Error(t, err)
}

func TestAllocator_SkipsObserved(t *testing.T) {
	var a IDAllocator
	a.Observe("node_2")
	a.Observe("step_57")
	a.Observe("start")
	a.Observe("node_10")
	assert.Equal(t, 57, a.Last())
	assert.Equal(t, "node_58", a.Next())
	assert.Equal(t, "node_59", a.Next())
}

func TestAllocatorProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("allocated ids never collide with existing nodes", prop.ForAll(
		func(existing []int, drops int) bool {
			f := New(1, "p")
			for _, n := range existing {
				_ = f.AddNode(Node{ID: StepID(int64(n)), Type: NodeCooking})
			}
			for i := 0; i < drops; i++ {
				if _, err := f.CreateNode(NodeCooling, Position{}, DomainData{}); err != nil {
					return false
				}
			}
			return f.Check() == nil && len(f.Nodes) == countUnique(existing)+drops
		},
		gen.SliceOf(gen.IntRange(0, 500)),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func countUnique(xs []int) int {
	seen := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
