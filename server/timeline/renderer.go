// Package timeline renders a keyframe timeline to a canvas and handles
// scrubbing on it. The renderer is single threaded: the host calls Render
// from its own frame loop, and the dirty check makes idle frames free.
package timeline

import (
	"image"

	"github.com/bmharper/flatbush-go"
	"github.com/cyclopcam/logs"
	"github.com/fogleman/gg"
	"github.com/vidtag/vidtag/pkg/anno"
	"github.com/vidtag/vidtag/pkg/gen"
)

const MinZoom = 1
const MaxZoom = 10

// Keyframe markers are drawn as diamonds with this half-diagonal, in pixels.
const markerHalfSize = 5

type Color struct {
	R float64
	G float64
	B float64
}

type Theme struct {
	Background    Color
	SegmentLinear Color
	SegmentHold   Color
	Invisible     Color
	Keyframe      Color
	Playhead      Color
}

func DefaultTheme() Theme {
	return Theme{
		Background:    Color{0.12, 0.12, 0.14},
		SegmentLinear: Color{0.22, 0.35, 0.55},
		SegmentHold:   Color{0.35, 0.30, 0.20},
		Invisible:     Color{0.10, 0.10, 0.10},
		Keyframe:      Color{0.95, 0.80, 0.25},
		Playhead:      Color{0.90, 0.25, 0.25},
	}
}

// RenderOptions are the inputs that affect what a paint produces. Render
// compares them (together with the sequence revision and canvas size) against
// the previous paint, and skips drawing when nothing changed.
type RenderOptions struct {
	CurrentFrame int
	Zoom         float32 // 1x..10x, clamped
	Theme        Theme
}

type renderSnapshot struct {
	opts     RenderOptions
	revision int64
	width    int
	height   int
}

// Renderer draws one sequence's timeline: shaded interpolation segment spans,
// keyframe diamond markers, visibility dimming and a playhead.
type Renderer struct {
	log       logs.Log
	seq       *anno.Sequence
	width     int
	height    int
	zoom      float32
	dc        *gg.Context
	destroyed bool

	forceRedraw bool
	hasLast     bool
	last        renderSnapshot

	// Marker hit testing, rebuilt on every paint
	markerFrames []int
	hitIndex     *flatbush.Flatbush[float32]
	hitScratch   []int

	scrub pointerPhase
}

func NewRenderer(log logs.Log, seq *anno.Sequence, width, height int) *Renderer {
	r := &Renderer{
		log:    logs.NewPrefixLogger(log, "Timeline"),
		seq:    seq,
		zoom:   MinZoom,
		width:  width,
		height: height,
	}
	if width > 0 && height > 0 {
		r.dc = gg.NewContext(width, height)
	}
	return r
}

// SetSequence points the renderer at a different sequence.
func (r *Renderer) SetSequence(seq *anno.Sequence) {
	r.seq = seq
	r.Invalidate()
}

// Invalidate forces the next Render to repaint even if no dependency changed.
func (r *Renderer) Invalidate() {
	r.forceRedraw = true
}

// Resize changes the canvas size. A no-op if the size is unchanged.
func (r *Renderer) Resize(width, height int) {
	if r.destroyed || (width == r.width && height == r.height) {
		return
	}
	r.width = width
	r.height = height
	r.dc = nil
	if width > 0 && height > 0 {
		r.dc = gg.NewContext(width, height)
	}
	r.forceRedraw = true
}

// Destroy releases the drawing surface. Safe to call twice. All subsequent
// renders and pointer events are no-ops.
func (r *Renderer) Destroy() {
	r.destroyed = true
	r.dc = nil
	r.scrub = phaseIdle
}

// frameSpan returns the first keyframe frame and the covered frame count (at least 1).
func (r *Renderer) frameSpan() (first, span int) {
	if r.seq == nil || len(r.seq.Boxes) == 0 {
		return 0, 1
	}
	first = r.seq.FirstFrame()
	span = max(1, r.seq.LastFrame()-first)
	return first, span
}

func (r *Renderer) pixelsPerFrame() float32 {
	_, span := r.frameSpan()
	return gen.Clamp(r.zoom, MinZoom, MaxZoom) * float32(r.width) / float32(span)
}

// FrameToX maps a frame number to a pixel x coordinate at the current zoom.
func (r *Renderer) FrameToX(frame int) float32 {
	first, _ := r.frameSpan()
	return float32(frame-first) * r.pixelsPerFrame()
}

// XToFrame maps a pixel x coordinate back to a frame number, clamped to the
// sequence's span. Inverse of FrameToX, modulo zoom-dependent rounding.
// A zero-width renderer maps everything to the first frame.
func (r *Renderer) XToFrame(x float32) int {
	first, span := r.frameSpan()
	ppf := r.pixelsPerFrame()
	if ppf <= 0 {
		return first
	}
	f := first + int(x/ppf+0.5)
	return gen.Clamp(f, first, first+span)
}

// SetZoom clamps to [MinZoom, MaxZoom].
func (r *Renderer) SetZoom(zoom float32) {
	z := gen.Clamp(zoom, MinZoom, MaxZoom)
	if z != r.zoom {
		r.zoom = z
		r.forceRedraw = true
	}
}

func (r *Renderer) Zoom() float32 {
	return r.zoom
}

// Render paints the timeline if any dependency (current frame, keyframe set,
// segment set, zoom, theme, canvas size) changed since the last paint.
// The second return value reports whether a paint actually happened.
// A destroyed or zero-sized renderer degrades to a no-op.
func (r *Renderer) Render(opts RenderOptions) (image.Image, bool, error) {
	if r.destroyed || r.dc == nil {
		return nil, false, nil
	}
	r.SetZoom(opts.Zoom)
	opts.Zoom = r.zoom
	snap := renderSnapshot{
		opts:   opts,
		width:  r.width,
		height: r.height,
	}
	if r.seq != nil {
		snap.revision = r.seq.Revision()
	}
	if r.hasLast && !r.forceRedraw && snap == r.last {
		return r.dc.Image(), false, nil
	}

	r.paint(opts)
	r.last = snap
	r.hasLast = true
	r.forceRedraw = false
	return r.dc.Image(), true, nil
}

func (r *Renderer) paint(opts RenderOptions) {
	dc := r.dc
	theme := opts.Theme
	setColor := func(c Color) {
		dc.SetRGB(c.R, c.G, c.B)
	}

	setColor(theme.Background)
	dc.Clear()

	h := float64(r.height)
	bandY := h * 0.25
	bandH := h * 0.5

	if r.seq != nil {
		// Interpolation segment spans
		for i := range r.seq.Segments {
			seg := &r.seq.Segments[i]
			x0 := float64(r.FrameToX(seg.StartFrame))
			x1 := float64(r.FrameToX(seg.EndFrame))
			if seg.Type == anno.SegmentHold {
				setColor(theme.SegmentHold)
			} else {
				setColor(theme.SegmentLinear)
			}
			dc.DrawRectangle(x0, bandY, x1-x0, bandH)
			dc.Fill()
		}

		// Dim the spans where the object is invisible
		for _, vr := range r.seq.VisibilityRanges {
			if vr.Visible {
				continue
			}
			x0 := float64(r.FrameToX(vr.StartFrame))
			x1 := float64(r.FrameToX(vr.EndFrame + 1))
			setColor(theme.Invisible)
			dc.DrawRectangle(x0, bandY, x1-x0, bandH)
			dc.Fill()
		}
	}

	r.paintMarkers(opts)

	// Playhead
	px := float64(r.FrameToX(opts.CurrentFrame))
	setColor(theme.Playhead)
	dc.SetLineWidth(2)
	dc.DrawLine(px, 0, px, h)
	dc.Stroke()
}

// paintMarkers draws the keyframe diamonds and rebuilds the hit test index
// over their bounding boxes.
func (r *Renderer) paintMarkers(opts RenderOptions) {
	r.markerFrames = r.markerFrames[:0]
	fb := flatbush.NewFlatbush[float32]()
	if r.seq != nil {
		fb.Reserve(len(r.seq.Boxes))
		cy := float64(r.height) / 2
		setColor := func(c Color) {
			r.dc.SetRGB(c.R, c.G, c.B)
		}
		for i := range r.seq.Boxes {
			frame := r.seq.Boxes[i].FrameNumber
			cx := float64(r.FrameToX(frame))
			setColor(opts.Theme.Keyframe)
			r.dc.MoveTo(cx, cy-markerHalfSize)
			r.dc.LineTo(cx+markerHalfSize, cy)
			r.dc.LineTo(cx, cy+markerHalfSize)
			r.dc.LineTo(cx-markerHalfSize, cy)
			r.dc.ClosePath()
			r.dc.Fill()

			fb.Add(float32(cx)-markerHalfSize, float32(cy)-markerHalfSize, float32(cx)+markerHalfSize, float32(cy)+markerHalfSize)
			r.markerFrames = append(r.markerFrames, frame)
		}
	}
	fb.Finish()
	r.hitIndex = fb
}

// KeyframeAt hit-tests the painted keyframe markers. Valid after the first
// Render. Returns the frame number of the marker under the point.
func (r *Renderer) KeyframeAt(x, y float32) (int, bool) {
	if r.destroyed || r.hitIndex == nil {
		return 0, false
	}
	r.hitScratch = r.hitIndex.SearchFast(x, y, x, y, r.hitScratch)
	if len(r.hitScratch) == 0 {
		return 0, false
	}
	return r.markerFrames[r.hitScratch[0]], true
}
