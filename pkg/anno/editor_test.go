package anno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddKeyframeUpsert(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 100, 100, 20, 20))
	require.Equal(t, 2, seq.KeyframeCount)

	// Insert in the middle
	require.NoError(t, seq.AddKeyframe(5, MakeRect(50, 50, 15, 15)))
	require.Equal(t, 3, seq.KeyframeCount)
	require.Len(t, seq.Segments, 2)
	require.Equal(t, 5, seq.Segments[0].EndFrame)
	require.Equal(t, 5, seq.Segments[1].StartFrame)

	// Replace existing (upsert): keyframe count unchanged
	require.NoError(t, seq.AddKeyframe(5, MakeRect(51, 51, 15, 15)))
	require.Equal(t, 3, seq.KeyframeCount)
	box, ok := BoxAtFrame(seq, 5)
	require.True(t, ok)
	require.Equal(t, MakeRect(51, 51, 15, 15), box)

	// Extend the span at both ends
	require.NoError(t, seq.AddKeyframe(20, MakeRect(1, 1, 2, 2)))
	require.NoError(t, seq.AddKeyframe(0, MakeRect(9, 9, 9, 9))) // upsert of first
	require.Equal(t, 4, seq.KeyframeCount)
	require.Equal(t, 21, seq.TotalFrames)
	require.Equal(t, 17, seq.InterpolatedFrameCount)
}

func TestAddKeyframeValidation(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10))
	before := seq.Clone()

	require.ErrorIs(t, seq.AddKeyframe(5, MakeRect(0, 0, 0, 10)), ErrValidation)
	require.ErrorIs(t, seq.AddKeyframe(5, MakeRect(0, 0, 10, -1)), ErrValidation)
	require.ErrorIs(t, seq.AddKeyframe(-1, MakeRect(0, 0, 10, 10)), ErrValidation)

	// Failed operations leave the sequence untouched
	require.Equal(t, before, seq)
}

func TestAddThenRemoveRestoresSequence(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(30, 60, 40, 12, 16))
	before := seq.Clone()

	require.NoError(t, seq.AddKeyframe(15, MakeRect(30, 20, 11, 13)))
	require.NoError(t, seq.RemoveKeyframe(15))

	require.Equal(t, before.Boxes, seq.Boxes)
	require.Equal(t, before.Segments, seq.Segments)
	require.Equal(t, before.KeyframeCount, seq.KeyframeCount)
	require.Equal(t, before.TotalFrames, seq.TotalFrames)
	require.Equal(t, before.InterpolatedFrameCount, seq.InterpolatedFrameCount)
}

func TestAddThenRemoveInsideHoldSegment(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(30, 60, 40, 12, 16))
	require.NoError(t, seq.UpdateSegment(0, SegmentHold, nil))
	before := seq.Clone()

	// Splitting a hold segment keeps hold on both halves, so interpolated boxes
	// outside the inserted frame don't change. Removing merges hold+hold back to hold.
	require.NoError(t, seq.AddKeyframe(15, MakeRect(0, 0, 10, 10)))
	require.Equal(t, SegmentHold, seq.Segments[0].Type)
	require.Equal(t, SegmentHold, seq.Segments[1].Type)

	require.NoError(t, seq.RemoveKeyframe(15))
	require.Equal(t, before.Boxes, seq.Boxes)
	require.Equal(t, before.Segments, seq.Segments)
}

func TestRemoveKeyframeEndpointsForbidden(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 5, 5, 10, 10), kf(20, 9, 9, 10, 10))
	before := seq.Clone()

	require.ErrorIs(t, seq.RemoveKeyframe(0), ErrInvalidOperation)
	require.ErrorIs(t, seq.RemoveKeyframe(20), ErrInvalidOperation)
	require.ErrorIs(t, seq.RemoveKeyframe(7), ErrNotFound)
	require.Equal(t, before, seq)

	require.NoError(t, seq.RemoveKeyframe(10))
	require.Equal(t, 2, seq.KeyframeCount)
}

func TestRemoveKeyframeWithTwoKeyframes(t *testing.T) {
	// With exactly two keyframes, both are first/last, so neither may be removed
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 5, 5, 10, 10))
	require.ErrorIs(t, seq.RemoveKeyframe(0), ErrInvalidOperation)
	require.ErrorIs(t, seq.RemoveKeyframe(10), ErrInvalidOperation)
	require.Equal(t, 2, seq.KeyframeCount)
}

func TestRemoveKeyframeMergesSegments(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 5, 5, 10, 10), kf(20, 9, 9, 10, 10))

	// hold + linear merges to linear
	require.NoError(t, seq.UpdateSegment(0, SegmentHold, nil))
	require.NoError(t, seq.RemoveKeyframe(10))
	require.Len(t, seq.Segments, 1)
	require.Equal(t, SegmentLinear, seq.Segments[0].Type)
	require.Equal(t, 0, seq.Segments[0].StartFrame)
	require.Equal(t, 20, seq.Segments[0].EndFrame)
}

func TestUpdateKeyframe(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 5, 5, 10, 10))
	before := seq.Clone()

	require.ErrorIs(t, seq.UpdateKeyframe(5, MakeRect(1, 1, 2, 2)), ErrNotFound)
	require.ErrorIs(t, seq.UpdateKeyframe(10, MakeRect(1, 1, 0, 2)), ErrValidation)
	require.Equal(t, before, seq)

	require.NoError(t, seq.UpdateKeyframe(10, MakeRect(7, 8, 9, 10)))
	box, ok := BoxAtFrame(seq, 10)
	require.True(t, ok)
	require.Equal(t, MakeRect(7, 8, 9, 10), box)
}

func TestCopyPreviousKeyframe(t *testing.T) {
	seq := makeSequence(t, kf(10, 5, 5, 10, 10), kf(20, 50, 50, 10, 10))
	before := seq.Clone()

	// No keyframe strictly before frame 10 (or frame 3)
	require.ErrorIs(t, seq.CopyPreviousKeyframe(10), ErrNotFound)
	require.ErrorIs(t, seq.CopyPreviousKeyframe(3), ErrNotFound)
	require.Equal(t, before, seq)

	// Copy into a new keyframe
	require.NoError(t, seq.CopyPreviousKeyframe(15))
	box, ok := BoxAtFrame(seq, 15)
	require.True(t, ok)
	require.Equal(t, MakeRect(5, 5, 10, 10), box)

	// Copy onto an existing keyframe (update path)
	require.NoError(t, seq.CopyPreviousKeyframe(20))
	box, ok = BoxAtFrame(seq, 20)
	require.True(t, ok)
	require.Equal(t, MakeRect(5, 5, 10, 10), box)
	require.Equal(t, 3, seq.KeyframeCount)
}

func TestUpdateSegment(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10), kf(10, 5, 5, 10, 10))
	before := seq.Clone()

	require.ErrorIs(t, seq.UpdateSegment(-1, SegmentHold, nil), ErrOutOfRange)
	require.ErrorIs(t, seq.UpdateSegment(1, SegmentHold, nil), ErrOutOfRange)
	require.Equal(t, before, seq)

	require.NoError(t, seq.UpdateSegment(0, SegmentHold, nil))
	require.Equal(t, SegmentHold, seq.Segments[0].Type)

	// Unknown future types are accepted and interpolate as linear
	require.NoError(t, seq.UpdateSegment(0, "bezier", []Point{{X: 1, Y: 2}}))
	box, ok := BoxAtFrame(seq, 5)
	require.True(t, ok)
	require.Equal(t, MakeRect(2.5, 2.5, 10, 10), box)
}

func TestRevisionBumpsOnMutationOnly(t *testing.T) {
	seq := makeSequence(t, kf(0, 0, 0, 10, 10))
	rev := seq.Revision()

	require.Error(t, seq.AddKeyframe(5, MakeRect(0, 0, -1, -1)))
	require.Equal(t, rev, seq.Revision())

	require.NoError(t, seq.AddKeyframe(5, MakeRect(1, 1, 2, 2)))
	require.Greater(t, seq.Revision(), rev)
}
