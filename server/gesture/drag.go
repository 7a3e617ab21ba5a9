package gesture

import (
	"errors"
	"fmt"

	"github.com/cyclopcam/logs"
	"github.com/vidtag/vidtag/pkg/anno"
	"github.com/vidtag/vidtag/pkg/gen"
)

// Minimum box dimension, in video pixels, enforced during resize.
const MinBoxDim = 10

var ErrInteractionActive = errors.New("another pointer interaction is already active")
var ErrGhostBox = errors.New("box is outside its visibility range and is read-only")

// Handle identifies which of the 8 resize handles is being dragged.
type Handle int

const (
	HandleN Handle = iota
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

func (h Handle) movesLeft() bool {
	return h == HandleW || h == HandleNW || h == HandleSW
}

func (h Handle) movesRight() bool {
	return h == HandleE || h == HandleNE || h == HandleSE
}

func (h Handle) movesTop() bool {
	return h == HandleN || h == HandleNE || h == HandleNW
}

func (h Handle) movesBottom() bool {
	return h == HandleS || h == HandleSE || h == HandleSW
}

// DisplayMode is how the box at the current frame is presented.
type DisplayMode int

const (
	// The current frame is a keyframe: edits apply directly.
	ModeKeyframe DisplayMode = iota
	// The box is interpolated: the first edit promotes the frame to a keyframe.
	ModeInterpolated
	// The box is outside every visibility range: read-only.
	ModeGhost
)

type interactionKind int

const (
	stateIdle interactionKind = iota
	stateDragging
	stateResizing
)

// interaction is the single source of truth for the active pointer gesture.
// One discriminated state instead of a pile of nullable fields.
type interaction struct {
	kind      interactionKind
	handle    Handle     // valid when kind == stateResizing
	origin    anno.Point // pointer position at gesture start, video space
	originBox anno.Rect  // box at gesture start
	frame     int
}

// Controller applies pointer gestures on the displayed box to its sequence.
// Dragging moves the box, dragging a handle resizes it. Editing a frame that
// is currently interpolated first promotes it to a keyframe with the
// interpolated box, so interpolation math is never silently mutated.
type Controller struct {
	log       logs.Log
	Translate Translator
	seq       *anno.Sequence
	state     interaction
}

func NewController(log logs.Log, seq *anno.Sequence, translate Translator) *Controller {
	return &Controller{
		log:       logs.NewPrefixLogger(log, "Gesture"),
		Translate: translate,
		seq:       seq,
	}
}

// ModeAt returns how the box at the given frame is displayed.
func (c *Controller) ModeAt(frame int) DisplayMode {
	if !c.seq.IsVisible(frame) {
		return ModeGhost
	}
	if c.seq.IsKeyframeAt(frame) {
		return ModeKeyframe
	}
	return ModeInterpolated
}

// Active reports whether a drag or resize is in progress.
func (c *Controller) Active() bool {
	return c.state.kind != stateIdle
}

// BeginDrag starts a whole-box drag at the given screen position.
func (c *Controller) BeginDrag(frame int, screenX, screenY float32) error {
	return c.begin(frame, screenX, screenY, stateDragging, HandleN)
}

// BeginResize starts a resize from one of the 8 handles.
func (c *Controller) BeginResize(frame int, handle Handle, screenX, screenY float32) error {
	return c.begin(frame, screenX, screenY, stateResizing, handle)
}

func (c *Controller) begin(frame int, screenX, screenY float32, kind interactionKind, handle Handle) error {
	if c.state.kind != stateIdle {
		return ErrInteractionActive
	}
	switch c.ModeAt(frame) {
	case ModeGhost:
		return ErrGhostBox
	case ModeInterpolated:
		// Promote: copy the interpolated box into a new keyframe, then edit that
		box, ok := anno.BoxAtFrame(c.seq, frame)
		if !ok {
			return fmt.Errorf("%w: no box at frame %v", anno.ErrNotFound, frame)
		}
		if err := c.seq.AddKeyframe(frame, box); err != nil {
			return err
		}
	}
	box, ok := anno.BoxAtFrame(c.seq, frame)
	if !ok {
		return fmt.Errorf("%w: no box at frame %v", anno.ErrNotFound, frame)
	}
	c.state = interaction{
		kind:      kind,
		handle:    handle,
		origin:    c.Translate.ToVideo(screenX, screenY),
		originBox: box,
		frame:     frame,
	}
	return nil
}

// PointerMove applies the gesture at the new pointer position, updating the
// keyframe at the gesture's frame. A no-op when no gesture is active.
func (c *Controller) PointerMove(screenX, screenY float32) error {
	if c.state.kind == stateIdle {
		return nil
	}
	p := c.Translate.ToVideo(screenX, screenY)
	dx := p.X - c.state.origin.X
	dy := p.Y - c.state.origin.Y

	var box anno.Rect
	if c.state.kind == stateDragging {
		box = c.dragBox(dx, dy)
	} else {
		box = c.resizeBox(dx, dy)
	}
	return c.seq.UpdateKeyframe(c.state.frame, box)
}

// PointerUp ends the gesture. Idempotent.
func (c *Controller) PointerUp() {
	c.state = interaction{}
}

// PointerLeave ends the gesture exactly like PointerUp.
func (c *Controller) PointerLeave() {
	c.state = interaction{}
}

// dragBox moves the origin box by the pointer delta, clamped so the whole box
// stays inside the video surface. A box larger than the video (legal, if odd)
// pins to the origin corner rather than inverting the clamp interval.
func (c *Controller) dragBox(dx, dy float32) anno.Rect {
	box := c.state.originBox
	box.X = gen.Clamp(box.X+dx, 0, max(c.Translate.VideoWidth-box.Width, 0))
	box.Y = gen.Clamp(box.Y+dy, 0, max(c.Translate.VideoHeight-box.Height, 0))
	return box
}

// resizeBox recomputes the dragged edges while holding the opposite edge or
// corner fixed, enforcing the minimum dimension and the video bounds. The
// minimum dimension yields to the bounds when the two conflict (a box that
// starts smaller than MinBoxDim, or sits closer to the video edge than
// MinBoxDim), so the edges never cross and never leave the video.
func (c *Controller) resizeBox(dx, dy float32) anno.Rect {
	orig := c.state.originBox
	h := c.state.handle
	x1 := orig.X
	y1 := orig.Y
	x2 := orig.X2()
	y2 := orig.Y2()

	if h.movesLeft() {
		x1 = gen.Clamp(x1+dx, 0, max(x2-MinBoxDim, 0))
	}
	if h.movesRight() {
		x2 = gen.Clamp(x2+dx, min(x1+MinBoxDim, c.Translate.VideoWidth), c.Translate.VideoWidth)
	}
	if h.movesTop() {
		y1 = gen.Clamp(y1+dy, 0, max(y2-MinBoxDim, 0))
	}
	if h.movesBottom() {
		y2 = gen.Clamp(y2+dy, min(y1+MinBoxDim, c.Translate.VideoHeight), c.Translate.VideoHeight)
	}
	return anno.MakeRect(x1, y1, x2-x1, y2-y1)
}
