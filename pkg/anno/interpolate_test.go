package anno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Build a sequence from (frame, rect) pairs, all segments linear.
func makeSequence(t *testing.T, keyframes ...BoundingBox) *Sequence {
	t.Helper()
	require.NotEmpty(t, keyframes)
	seq, err := NewSequence(keyframes[0].FrameNumber, keyframes[0].Rect)
	require.NoError(t, err)
	for _, kf := range keyframes[1:] {
		require.NoError(t, seq.AddKeyframe(kf.FrameNumber, kf.Rect))
	}
	return seq
}

func kf(frame int, x, y, w, h float32) BoundingBox {
	return BoundingBox{Rect: MakeRect(x, y, w, h), FrameNumber: frame, IsKeyframe: true}
}

func TestBoxAtKeyframeIsExact(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(7, 33.5, 12.25, 17, 9),
		kf(10, 100, 100, 20, 20),
	)
	for _, b := range seq.Boxes {
		box, ok := BoxAtFrame(seq, b.FrameNumber)
		require.True(t, ok)
		require.Equal(t, b.Rect, box)
	}
}

func TestLinearInterpolation(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(10, 100, 100, 20, 20),
	)
	box, ok := BoxAtFrame(seq, 5)
	require.True(t, ok)
	require.Equal(t, MakeRect(50, 50, 15, 15), box)

	box, ok = BoxAtFrame(seq, 1)
	require.True(t, ok)
	require.Equal(t, MakeRect(10, 10, 11, 11), box)
}

func TestLinearMidpointOfThree(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(30, 60, 40, 12, 16),
		kf(60, 100, 80, 20, 24),
	)
	box, ok := BoxAtFrame(seq, 45)
	require.True(t, ok)
	require.Equal(t, MakeRect(80, 60, 16, 20), box)
}

func TestHoldInterpolation(t *testing.T) {
	a := MakeRect(0, 0, 10, 10)
	b := MakeRect(100, 100, 20, 20)
	seq := makeSequence(t,
		BoundingBox{Rect: a, FrameNumber: 0, IsKeyframe: true},
		BoundingBox{Rect: b, FrameNumber: 10, IsKeyframe: true},
	)
	require.NoError(t, seq.UpdateSegment(0, SegmentHold, nil))

	for f := 0; f < 10; f++ {
		box, ok := BoxAtFrame(seq, f)
		require.True(t, ok)
		require.Equal(t, a, box, "frame %v", f)
	}
	// Step discontinuity exactly at frame 10
	box, ok := BoxAtFrame(seq, 10)
	require.True(t, ok)
	require.Equal(t, b, box)
}

func TestClampBeyondSpan(t *testing.T) {
	seq := makeSequence(t,
		kf(10, 5, 5, 10, 10),
		kf(20, 50, 50, 10, 10),
	)
	// No extrapolation: frames outside the keyframe span clamp to the nearest keyframe
	box, ok := BoxAtFrame(seq, 0)
	require.True(t, ok)
	require.Equal(t, MakeRect(5, 5, 10, 10), box)

	box, ok = BoxAtFrame(seq, 100)
	require.True(t, ok)
	require.Equal(t, MakeRect(50, 50, 10, 10), box)
}

func TestAbsentOutsideVisibility(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(100, 100, 100, 10, 10),
	)
	seq.VisibilityRanges = []VisibilityRange{
		{StartFrame: 0, EndFrame: 40, Visible: true},
		{StartFrame: 41, EndFrame: 60, Visible: false},
		{StartFrame: 61, EndFrame: 100, Visible: true},
	}

	_, ok := BoxAtFrame(seq, 50)
	require.False(t, ok)
	_, ok = BoxAtFrame(seq, 41)
	require.False(t, ok)
	_, ok = BoxAtFrame(seq, 40)
	require.True(t, ok)
	_, ok = BoxAtFrame(seq, 61)
	require.True(t, ok)
	// Outside every range
	_, ok = BoxAtFrame(seq, 101)
	require.False(t, ok)
}

func TestAbsentWithNoKeyframes(t *testing.T) {
	seq := &Sequence{}
	_, ok := BoxAtFrame(seq, 0)
	require.False(t, ok)
	_, ok = BoxAtFrame(nil, 0)
	require.False(t, ok)
}

func TestInterpolationIsPure(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(10, 100, 100, 20, 20),
	)
	before := seq.Clone()
	for f := -5; f <= 15; f++ {
		BoxAtFrame(seq, f)
	}
	require.Equal(t, before, seq)
}
