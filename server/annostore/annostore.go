// Package annostore is the single owner of annotations and their bounding box
// sequences. All mutation goes through the store's command methods, which wrap
// the keyframe editor, so readers elsewhere only ever see immutable snapshots.
package annostore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/vidtag/vidtag/pkg/anno"
	"gorm.io/gorm"
)

var ErrAnnotationNotFound = errors.New("annotation not found")
var ErrNothingToUndo = errors.New("nothing to undo")

// Max number of pre-mutation snapshots we keep per annotation, for undo.
const maxUndoDepth = 32

// Number of recent changes we remember per annotation.
const historySize = 64

// ChangeRecord is one entry of an annotation's recent edit history.
type ChangeRecord struct {
	Time  time.Time `json:"time"`
	Op    string    `json:"op"`
	Frame int       `json:"frame"`
}

// Store owns annotations. It is the single writer: every sequence mutation in
// the system funnels through one of its command methods.
type Store struct {
	log logs.Log
	db  *gorm.DB

	// Guards all mutation, plus the undo and history state
	lock    sync.Mutex
	undo    map[int64][]*anno.Sequence
	history map[int64]*ringbuffer.RingP[ChangeRecord]

	watchersLock sync.Mutex
	watchers     []chan *Change
}

// NewStore opens or creates the annotation DB inside root.
func NewStore(logger logs.Log, root string) (*Store, error) {
	logger = logs.NewPrefixLogger(logger, "AnnoStore")
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0770); err != nil {
		return nil, fmt.Errorf("Failed to create annotation storage path '%v': %w", root, err)
	}
	dbPath := filepath.Join(root, "annotations.sqlite")
	logger.Infof("Opening annotation DB at '%v'", dbPath)
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbPath), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open annotation database %v: %w", dbPath, err)
	}
	return &Store{
		log:     logger,
		db:      db,
		undo:    map[int64][]*anno.Sequence{},
		history: map[int64]*ringbuffer.RingP[ChangeRecord]{},
	}, nil
}

// CreateAnnotation creates an annotation whose sequence starts with a single
// keyframe at the given frame.
func (s *Store) CreateAnnotation(videoID int64, label string, fps float64, frame int, box anno.Rect) (*Annotation, error) {
	seq, err := anno.NewSequence(frame, box)
	if err != nil {
		return nil, err
	}
	now := dbh.MakeIntTime(time.Now())
	a := &Annotation{
		VideoID:    videoID,
		Label:      label,
		FPS:        fps,
		CreatedAt:  now,
		ModifiedAt: now,
		Sequence:   &dbh.JSONField[anno.Sequence]{Data: *seq},
	}
	if err := s.db.Create(a).Error; err != nil {
		return nil, err
	}
	s.sendToWatchers(&Change{AnnotationID: a.ID, Op: "create", Sequence: a.Seq().Clone()})
	return a, nil
}

// CreateAnnotationAtTime is CreateAnnotation with the keyframe authored from
// the current playback position, in seconds.
func (s *Store) CreateAnnotationAtTime(videoID int64, label string, fps, seconds float64, box anno.Rect) (*Annotation, error) {
	return s.CreateAnnotation(videoID, label, fps, anno.TimeToFrame(seconds, fps), box)
}

// GetAnnotation loads an annotation. The sequence passes through the ingestion
// boundary (Normalize), so malformed stored data is rejected here rather than
// misinterpreted during interpolation.
func (s *Store) GetAnnotation(id int64) (*Annotation, error) {
	a := &Annotation{}
	if err := s.db.First(a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrAnnotationNotFound, id)
		}
		return nil, err
	}
	if seq := a.Seq(); seq != nil {
		if err := seq.Normalize(); err != nil {
			return nil, fmt.Errorf("annotation %v has an invalid sequence: %w", id, err)
		}
	}
	return a, nil
}

// ListAnnotations returns all annotations of a video.
func (s *Store) ListAnnotations(videoID int64) ([]Annotation, error) {
	list := []Annotation{}
	if err := s.db.Where("video_id = ?", videoID).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteAnnotation deletes an annotation and with it the sequence it owns.
func (s *Store) DeleteAnnotation(id int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	res := s.db.Delete(&Annotation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %v", ErrAnnotationNotFound, id)
	}
	delete(s.undo, id)
	delete(s.history, id)
	s.sendToWatchers(&Change{AnnotationID: id, Op: "delete"})
	return nil
}

// AddKeyframe upserts a keyframe.
func (s *Store) AddKeyframe(id int64, frame int, box anno.Rect) (*Annotation, error) {
	return s.mutate(id, "addKeyframe", frame, func(seq *anno.Sequence) error {
		return seq.AddKeyframe(frame, box)
	})
}

// AddKeyframeAtTime authors a keyframe from the current playback position.
func (s *Store) AddKeyframeAtTime(id int64, seconds float64, box anno.Rect) (*Annotation, error) {
	a, err := s.GetAnnotation(id)
	if err != nil {
		return nil, err
	}
	return s.AddKeyframe(id, anno.TimeToFrame(seconds, a.FPS), box)
}

// RemoveKeyframe removes an interior keyframe.
func (s *Store) RemoveKeyframe(id int64, frame int) (*Annotation, error) {
	return s.mutate(id, "removeKeyframe", frame, func(seq *anno.Sequence) error {
		return seq.RemoveKeyframe(frame)
	})
}

// UpdateKeyframe replaces the box at an existing keyframe.
func (s *Store) UpdateKeyframe(id int64, frame int, box anno.Rect) (*Annotation, error) {
	return s.mutate(id, "updateKeyframe", frame, func(seq *anno.Sequence) error {
		return seq.UpdateKeyframe(frame, box)
	})
}

// CopyPreviousKeyframe copies the nearest earlier keyframe's box to frame.
func (s *Store) CopyPreviousKeyframe(id int64, frame int) (*Annotation, error) {
	return s.mutate(id, "copyPreviousKeyframe", frame, func(seq *anno.Sequence) error {
		return seq.CopyPreviousKeyframe(frame)
	})
}

// UpdateSegment changes one segment's interpolation rule.
func (s *Store) UpdateSegment(id int64, index int, segType anno.SegmentType, controlPoints []anno.Point) (*Annotation, error) {
	return s.mutate(id, "updateSegment", 0, func(seq *anno.Sequence) error {
		return seq.UpdateSegment(index, segType, controlPoints)
	})
}

// SetVisibilityRanges replaces the sequence's visibility ranges.
func (s *Store) SetVisibilityRanges(id int64, ranges []anno.VisibilityRange) (*Annotation, error) {
	return s.mutate(id, "setVisibility", 0, func(seq *anno.Sequence) error {
		seq.VisibilityRanges = ranges
		return seq.Normalize()
	})
}

// Undo restores the sequence as it was before the most recent mutation.
// The undo stack is in-memory only, and bounded.
func (s *Store) Undo(id int64) (*Annotation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	stack := s.undo[id]
	if len(stack) == 0 {
		return nil, ErrNothingToUndo
	}
	a, err := s.GetAnnotation(id)
	if err != nil {
		return nil, err
	}
	restored := stack[len(stack)-1]
	s.undo[id] = stack[:len(stack)-1]
	a.Sequence = &dbh.JSONField[anno.Sequence]{Data: *restored}
	a.ModifiedAt = dbh.MakeIntTime(time.Now())
	if err := s.db.Save(a).Error; err != nil {
		return nil, err
	}
	s.addHistory(id, "undo", 0)
	s.sendToWatchers(&Change{AnnotationID: id, Op: "undo", Sequence: restored.Clone()})
	return a, nil
}

// History returns the most recent change records of an annotation, oldest first.
func (s *Store) History(id int64) []ChangeRecord {
	s.lock.Lock()
	defer s.lock.Unlock()
	ring := s.history[id]
	if ring == nil {
		return nil
	}
	records := make([]ChangeRecord, 0, ring.Len())
	for i := 0; i < ring.Len(); i++ {
		records = append(records, ring.Peek(i))
	}
	return records
}

// BoxAtFrame interpolates the annotation's box at the given frame.
func (s *Store) BoxAtFrame(id int64, frame int) (anno.Rect, bool, error) {
	a, err := s.GetAnnotation(id)
	if err != nil {
		return anno.Rect{}, false, err
	}
	box, ok := anno.BoxAtFrame(a.Seq(), frame)
	return box, ok, nil
}

// MotionPath projects the annotation's motion trajectory.
func (s *Store) MotionPath(id int64) ([]anno.PathPoint, error) {
	a, err := s.GetAnnotation(id)
	if err != nil {
		return nil, err
	}
	return anno.ProjectMotionPath(a.Seq()), nil
}

// mutate loads the annotation, applies fn to its sequence, and persists and
// broadcasts the result. A failed fn changes nothing: no save, no undo entry,
// no notification.
func (s *Store) mutate(id int64, op string, frame int, fn func(seq *anno.Sequence) error) (*Annotation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	a, err := s.GetAnnotation(id)
	if err != nil {
		return nil, err
	}
	seq := a.Seq()
	if seq == nil {
		return nil, fmt.Errorf("annotation %v has no sequence", id)
	}
	before := seq.Clone()
	if err := fn(seq); err != nil {
		return nil, err
	}
	a.ModifiedAt = dbh.MakeIntTime(time.Now())
	if err := s.db.Save(a).Error; err != nil {
		return nil, err
	}
	s.pushUndo(id, before)
	s.addHistory(id, op, frame)
	s.sendToWatchers(&Change{AnnotationID: id, Op: op, Sequence: seq.Clone()})
	return a, nil
}

func (s *Store) pushUndo(id int64, snapshot *anno.Sequence) {
	stack := append(s.undo[id], snapshot)
	if len(stack) > maxUndoDepth {
		stack = stack[len(stack)-maxUndoDepth:]
	}
	s.undo[id] = stack
}

func (s *Store) addHistory(id int64, op string, frame int) {
	ring := s.history[id]
	if ring == nil {
		r := ringbuffer.NewRingP[ChangeRecord](historySize)
		ring = &r
		s.history[id] = ring
	}
	ring.Add(ChangeRecord{Time: time.Now(), Op: op, Frame: frame})
}
