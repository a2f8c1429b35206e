package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	t.Parallel()

	t.Run("winds before t0, turns after", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(50)
		for _, f := range []int{10, 30, 70, 90} {
			require.True(t, r.AddTurnBoundary(f))
		}
		assert.Equal(t, []Label{
			{Frame: 10, Text: "W1"},
			{Frame: 30, Text: "W2"},
			{Frame: 70, Text: "T1"},
			{Frame: 90, Text: "T2"},
		}, r.Labels())
	})

	t.Run("unset t0 makes every boundary a turn", func(t *testing.T) {
		r := NewRecord()
		for _, f := range []int{10, 30, 70} {
			require.True(t, r.AddTurnBoundary(f))
		}
		assert.Equal(t, []Label{
			{Frame: 10, Text: "T1"},
			{Frame: 30, Text: "T2"},
			{Frame: 70, Text: "T3"},
		}, r.Labels())
	})

	t.Run("labels shift when t0 moves", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(50)
		for _, f := range []int{10, 30, 70} {
			require.True(t, r.AddTurnBoundary(f))
		}
		require.Equal(t, "W2", r.Labels()[1].Text)

		r.SetT0(20)
		assert.Equal(t, []Label{
			{Frame: 10, Text: "W1"},
			{Frame: 30, Text: "T1"},
			{Frame: 70, Text: "T2"},
		}, r.Labels())
	})

	t.Run("labels shift when a boundary is deleted", func(t *testing.T) {
		r := NewRecord()
		r.SetT0(50)
		for _, f := range []int{10, 30, 70, 90} {
			require.True(t, r.AddTurnBoundary(f))
		}
		require.True(t, r.DeleteAtFrame(10))
		assert.Equal(t, []Label{
			{Frame: 30, Text: "W1"},
			{Frame: 70, Text: "T1"},
			{Frame: 90, Text: "T2"},
		}, r.Labels())
	})

	t.Run("empty record has no labels", func(t *testing.T) {
		r := NewRecord()
		assert.Empty(t, r.Labels())
	})
}
