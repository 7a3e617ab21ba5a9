package gesture

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidtag/vidtag/pkg/anno"
)

func TestScreenVideoMapping(t *testing.T) {
	tr := testTranslator()

	// Top-left of the display is video (0,0)
	p := tr.ToVideo(100, 50)
	require.Equal(t, anno.Point{X: 0, Y: 0}, p)

	// Bottom-right of the display is video (1920,1080)
	p = tr.ToVideo(100+960, 50+540)
	require.Equal(t, anno.Point{X: 1920, Y: 1080}, p)

	// Round trip
	for _, v := range []anno.Point{{X: 0, Y: 0}, {X: 960, Y: 540}, {X: 123, Y: 456}} {
		sx, sy := tr.ToScreen(v)
		require.Equal(t, v, tr.ToVideo(sx, sy))
	}
}
