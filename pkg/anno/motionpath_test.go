package anno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectMotionPathLinear(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),     // center 5,5
		kf(10, 100, 100, 20, 20), // center 110,110
	)
	path := ProjectMotionPath(seq)
	require.Len(t, path, 2)
	require.Equal(t, PathPoint{Frame: 0, X: 5, Y: 5, IsKeyframe: true}, path[0])
	require.Equal(t, PathPoint{Frame: 10, X: 110, Y: 110, IsKeyframe: true}, path[1])
}

func TestProjectMotionPathHoldStep(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),     // center 5,5
		kf(10, 100, 100, 20, 20), // center 110,110
	)
	require.NoError(t, seq.UpdateSegment(0, SegmentHold, nil))

	// A hold segment renders as an axis-aligned step, not a diagonal
	path := ProjectMotionPath(seq)
	require.Len(t, path, 3)
	require.True(t, path[0].IsKeyframe)
	require.Equal(t, PathPoint{Frame: 10, X: 110, Y: 5}, path[1])
	require.True(t, path[2].IsKeyframe)
}

func TestProjectMotionPathBreaksAcrossInvisibleGaps(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(20, 20, 20, 10, 10),
		kf(40, 40, 40, 10, 10),
		kf(60, 60, 60, 10, 10),
	)
	seq.VisibilityRanges = []VisibilityRange{
		{StartFrame: 0, EndFrame: 25, Visible: true},
		{StartFrame: 26, EndFrame: 35, Visible: false},
		{StartFrame: 36, EndFrame: 60, Visible: true},
	}

	path := ProjectMotionPath(seq)
	require.Len(t, path, 4)
	require.False(t, path[0].Break)
	require.False(t, path[1].Break)
	// The gap between frames 20 and 40 crosses an invisible range: break, don't connect
	require.True(t, path[2].Break)
	require.False(t, path[3].Break)
}

func TestProjectMotionPathSkipsInvisibleKeyframes(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(20, 20, 20, 10, 10),
		kf(40, 40, 40, 10, 10),
	)
	seq.VisibilityRanges = []VisibilityRange{
		{StartFrame: 0, EndFrame: 10, Visible: true},
		{StartFrame: 11, EndFrame: 30, Visible: false},
		{StartFrame: 31, EndFrame: 40, Visible: true},
	}

	path := ProjectMotionPath(seq)
	require.Len(t, path, 2)
	require.Equal(t, 0, path[0].Frame)
	require.Equal(t, 40, path[1].Frame)
	require.True(t, path[1].Break)
}

func TestProjectMotionPathEmpty(t *testing.T) {
	require.Nil(t, ProjectMotionPath(nil))
	require.Nil(t, ProjectMotionPath(&Sequence{}))
}

func TestProjectorCache(t *testing.T) {
	seq := makeSequence(t,
		kf(0, 0, 0, 10, 10),
		kf(10, 100, 100, 20, 20),
	)
	p := &Projector{}
	first := p.Path(seq)
	second := p.Path(seq)
	// Unchanged revision: the cached slice is returned as-is
	require.Len(t, first, 2)
	require.Same(t, &first[0], &second[0])

	// Any mutation bumps the revision and invalidates the cache
	require.NoError(t, seq.AddKeyframe(5, MakeRect(50, 50, 15, 15)))
	third := p.Path(seq)
	require.Len(t, third, 3)

	p.Invalidate()
	fourth := p.Path(seq)
	require.Len(t, fourth, 3)
	require.NotSame(t, &third[0], &fourth[0])
}
