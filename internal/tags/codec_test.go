package tags

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giering/throwsage-viewer/internal/ellipse"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewRecord()
	r.SetT0(50)
	r.SetRelease(200)
	require.True(t, r.AddTurnBoundary(30))
	require.True(t, r.AddTurnBoundary(90))
	require.True(t, r.AddSingleSupport(60))
	require.True(t, r.AddDoubleSupport(80))
	r.AddBallMarker(120, 640.5, 360.25)
	r.SetCircle(ellipse.Ellipse{CenterX: 960, CenterY: 540, SemiMajor: 300, SemiMinor: 200, Rotation: 0.1})
	r.SetZeroAngle(1.25)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	got, err := DecodeJSON(data)
	require.NoError(t, err)

	if diff := cmp.Diff(r.Encode(), got.Encode()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.Dirty(), "decoded record must start clean")
	assert.Zero(t, got.UndoDepth(), "decoded record must start with an empty undo stack")
}

func TestDecodeLegacyBoundaries(t *testing.T) {
	t.Parallel()

	t.Run("all-boundaries list drops t0 itself", func(t *testing.T) {
		doc := &Document{
			T0:            intp(50),
			Release:       intp(200),
			AllBoundaries: []int{10, 50, 70, 90},
		}
		r, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 70, 90}, r.TurnBoundaries())
	})

	t.Run("all-boundaries without t0 keeps everything", func(t *testing.T) {
		doc := &Document{AllBoundaries: []int{90, 10, 70}}
		r, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 70, 90}, r.TurnBoundaries())
	})

	t.Run("current layout wins over legacy", func(t *testing.T) {
		doc := &Document{
			T0:             intp(50),
			TurnBoundaries: []int{70},
			AllBoundaries:  []int{10, 50, 90},
		}
		r, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []int{70}, r.TurnBoundaries())
	})
}

func TestDecodeLegacySupportMarks(t *testing.T) {
	t.Parallel()

	t.Run("codes split into ss and ds", func(t *testing.T) {
		doc := &Document{
			SupportMarks: []SupportMark{
				{Frame: 80, Code: 2},
				{Frame: 40, Code: 1},
				{Frame: 60, Code: 1},
			},
		}
		r, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []int{40, 60}, r.SingleSupport())
		assert.Equal(t, []int{80}, r.DoubleSupport())
	})

	t.Run("unknown code is an error", func(t *testing.T) {
		doc := &Document{SupportMarks: []SupportMark{{Frame: 40, Code: 7}}}
		_, err := DecodeDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "support code 7")
	})

	t.Run("current layout wins over marks", func(t *testing.T) {
		doc := &Document{
			SSBoundaries: []int{10},
			SupportMarks: []SupportMark{{Frame: 40, Code: 1}},
		}
		r, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []int{10}, r.SingleSupport())
		assert.Empty(t, r.DoubleSupport())
	})
}

func TestDecodeJSONErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestEncodeOmitsUnsetFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewRecord())
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func intp(v int) *int { return &v }
