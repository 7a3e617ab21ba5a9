// Package gesture turns pointer events in screen space into keyframe edits.
// It owns the drag/resize state machine for the box currently on screen, and
// the mapping between screen pixels and video pixels.
package gesture

import (
	"github.com/vidtag/vidtag/pkg/anno"
)

// DisplayRect is the rectangle, in screen pixels, in which the video surface
// is displayed.
type DisplayRect struct {
	Left   float32
	Top    float32
	Width  float32
	Height float32
}

// Translator maps between screen space and video pixel space. The video is
// assumed to fill the display rect, so the scale is Width/VideoWidth on x and
// Height/VideoHeight on y.
type Translator struct {
	Display     DisplayRect
	VideoWidth  float32
	VideoHeight float32
}

func (t *Translator) ToVideo(screenX, screenY float32) anno.Point {
	return anno.Point{
		X: (screenX - t.Display.Left) * t.VideoWidth / t.Display.Width,
		Y: (screenY - t.Display.Top) * t.VideoHeight / t.Display.Height,
	}
}

func (t *Translator) ToScreen(p anno.Point) (float32, float32) {
	return t.Display.Left + p.X*t.Display.Width/t.VideoWidth,
		t.Display.Top + p.Y*t.Display.Height/t.VideoHeight
}
