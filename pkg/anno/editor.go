package anno

import (
	"fmt"
	"slices"
)

// Keyframe editing operations. These are the only way a sequence changes after
// creation. Every operation is atomic: all validation happens before the first
// write, so a failed operation leaves the sequence untouched.

// AddKeyframe inserts a keyframe at the given frame, or replaces the box of an
// existing keyframe at that frame (upsert).
//
// When the new keyframe splits an existing segment, both halves inherit the split
// segment's type, so interpolation at the frames around the insertion point is
// unchanged. Keyframes that extend the span get a linear segment.
func (s *Sequence) AddKeyframe(frame int, box Rect) error {
	if frame < 0 {
		return fmt.Errorf("%w: frame number %v is negative", ErrValidation, frame)
	}
	if !box.IsValid() {
		return fmt.Errorf("%w: width and height must be positive", ErrValidation)
	}
	i, exact := s.findKeyframe(frame)
	if exact {
		s.Boxes[i].Rect = box
		s.recompute()
		return nil
	}
	s.Boxes = slices.Insert(s.Boxes, i, BoundingBox{Rect: box, FrameNumber: frame, IsKeyframe: true})
	switch {
	case len(s.Boxes) == 1:
		// First keyframe, no segments yet
	case i == 0:
		s.Segments = slices.Insert(s.Segments, 0, InterpolationSegment{
			StartFrame: frame,
			EndFrame:   s.Boxes[1].FrameNumber,
			Type:       SegmentLinear,
		})
	case i == len(s.Boxes)-1:
		s.Segments = append(s.Segments, InterpolationSegment{
			StartFrame: s.Boxes[i-1].FrameNumber,
			EndFrame:   frame,
			Type:       SegmentLinear,
		})
	default:
		split := s.Segments[i-1]
		s.Segments[i-1] = InterpolationSegment{
			StartFrame: split.StartFrame,
			EndFrame:   frame,
			Type:       split.Type,
		}
		s.Segments = slices.Insert(s.Segments, i, InterpolationSegment{
			StartFrame: frame,
			EndFrame:   split.EndFrame,
			Type:       split.Type,
		})
	}
	s.recompute()
	return nil
}

// RemoveKeyframe removes an interior keyframe and merges its two adjacent segments
// into one spanning the remaining neighbors. The merged segment is hold only if
// both sides were hold, otherwise linear.
//
// Removing the first or last keyframe is forbidden, because that would alter the
// annotation's temporal extent.
func (s *Sequence) RemoveKeyframe(frame int) error {
	i, exact := s.findKeyframe(frame)
	if !exact {
		return fmt.Errorf("%w: frame %v is not a keyframe", ErrNotFound, frame)
	}
	if i == 0 || i == len(s.Boxes)-1 {
		return fmt.Errorf("%w: cannot remove the first or last keyframe", ErrInvalidOperation)
	}
	merged := SegmentLinear
	if s.Segments[i-1].Type == SegmentHold && s.Segments[i].Type == SegmentHold {
		merged = SegmentHold
	}
	s.Segments[i-1] = InterpolationSegment{
		StartFrame: s.Segments[i-1].StartFrame,
		EndFrame:   s.Segments[i].EndFrame,
		Type:       merged,
	}
	s.Segments = slices.Delete(s.Segments, i, i+1)
	s.Boxes = slices.Delete(s.Boxes, i, i+1)
	s.recompute()
	return nil
}

// UpdateKeyframe replaces the box of an existing keyframe.
func (s *Sequence) UpdateKeyframe(frame int, box Rect) error {
	if !box.IsValid() {
		return fmt.Errorf("%w: width and height must be positive", ErrValidation)
	}
	i, exact := s.findKeyframe(frame)
	if !exact {
		return fmt.Errorf("%w: frame %v is not a keyframe", ErrNotFound, frame)
	}
	s.Boxes[i].Rect = box
	s.recompute()
	return nil
}

// CopyPreviousKeyframe copies the box of the nearest keyframe strictly before the
// given frame into a keyframe at that frame (creating or replacing it).
func (s *Sequence) CopyPreviousKeyframe(frame int) error {
	i, _ := s.findKeyframe(frame)
	if i == 0 {
		return fmt.Errorf("%w: no keyframe before frame %v", ErrNotFound, frame)
	}
	return s.AddKeyframe(frame, s.Boxes[i-1].Rect)
}

// UpdateSegment replaces one segment's interpolation rule.
func (s *Sequence) UpdateSegment(index int, segType SegmentType, controlPoints []Point) error {
	if index < 0 || index >= len(s.Segments) {
		return fmt.Errorf("%w: segment %v of %v", ErrOutOfRange, index, len(s.Segments))
	}
	if segType == "" {
		return fmt.Errorf("%w: empty segment type", ErrValidation)
	}
	s.Segments[index].Type = segType
	s.Segments[index].ControlPoints = slices.Clone(controlPoints)
	s.recompute()
	return nil
}
