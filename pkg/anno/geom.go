package anno

import (
	"github.com/chewxy/math32"
)

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y))
}

// Rect is a box in video pixel space.
type Rect struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func MakeRect(x, y, width, height float32) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) X2() float32 {
	return r.X + r.Width
}

func (r Rect) Y2() float32 {
	return r.Y + r.Height
}

func (r Rect) Area() float32 {
	return r.Width * r.Height
}

// A rect is valid if it has positive width and height.
func (r Rect) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X2(), b.X2())
	y2 := min(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

func (r Rect) Union(b Rect) Rect {
	x1 := min(r.X, b.X)
	y1 := min(r.Y, b.Y)
	x2 := max(r.X2(), b.X2())
	y2 := max(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// Intersection over Union
func (r Rect) IOU(b Rect) float32 {
	intersection := r.Intersection(b)
	return intersection.Area() / (r.Area() + b.Area() - intersection.Area())
}

func (r *Rect) Offset(dx, dy float32) {
	r.X += dx
	r.Y += dy
}

// Largest absolute difference between any of the four coordinates of the two rects.
func (r Rect) MaxDelta(b Rect) float32 {
	return max(
		math32.Abs(r.X-b.X),
		math32.Abs(r.Y-b.Y),
		math32.Abs(r.X2()-b.X2()),
		math32.Abs(r.Y2()-b.Y2()))
}

// Lerp returns the component-wise linear interpolation between r and b.
// t = 0 returns r, t = 1 returns b.
func (r Rect) Lerp(b Rect, t float32) Rect {
	return Rect{
		X:      lerp(r.X, b.X, t),
		Y:      lerp(r.Y, b.Y, t),
		Width:  lerp(r.Width, b.Width, t),
		Height: lerp(r.Height, b.Height, t),
	}
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}
