package annostore

import (
	"github.com/cyclopcam/dbh"
	"github.com/vidtag/vidtag/pkg/anno"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// An Annotation tracks one object through a span of video. It owns exactly one
// bounding box sequence (1:1, never shared), which is created with the
// annotation's first box and destroyed with the annotation.
// SYNC-ANNOTATION-JSON
type Annotation struct {
	BaseModel
	VideoID    int64                         `json:"videoID"`
	Label      string                        `json:"label"`      // eg "person", "car"
	FPS        float64                       `json:"fps"`        // Frame rate of the video, for playback-time to frame conversion
	CreatedAt  dbh.IntTime                   `json:"createdAt"`
	ModifiedAt dbh.IntTime                   `json:"modifiedAt"`
	Sequence   *dbh.JSONField[anno.Sequence] `json:"sequence"`
}

func (a *Annotation) TableName() string {
	return "annotation"
}

// Seq returns the annotation's sequence, or nil if it has none.
func (a *Annotation) Seq() *anno.Sequence {
	if a.Sequence == nil {
		return nil
	}
	return &a.Sequence.Data
}
