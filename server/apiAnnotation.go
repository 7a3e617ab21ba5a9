package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/vidtag/vidtag/pkg/anno"
	"github.com/vidtag/vidtag/server/annostore"
)

const maxAnnotationBodyBytes = 1024 * 1024

// checkAnno turns domain errors into the appropriate HTTP status.
// Anything unrecognized is a 500.
func checkAnno(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, annostore.ErrAnnotationNotFound), errors.Is(err, anno.ErrNotFound):
		www.Panic(http.StatusNotFound, err.Error())
	case errors.Is(err, anno.ErrValidation),
		errors.Is(err, anno.ErrInvalidOperation),
		errors.Is(err, anno.ErrOutOfRange),
		errors.Is(err, anno.ErrDuplicateFrame),
		errors.Is(err, annostore.ErrNothingToUndo):
		www.PanicBadRequestf("%v", err)
	default:
		www.Check(err)
	}
}

func parseAnnotationID(params httprouter.Params) int64 {
	id := www.ParseID(params.ByName("id"))
	if id == 0 {
		www.PanicBadRequestf("Invalid annotation id '%v'", params.ByName("id"))
	}
	return id
}

func parseFrame(params httprouter.Params) int {
	frame, err := strconv.Atoi(params.ByName("frame"))
	if err != nil {
		www.PanicBadRequestf("Invalid frame '%v'", params.ByName("frame"))
	}
	return frame
}

type createAnnotationJSON struct {
	VideoID int64     `json:"videoID"`
	Label   string    `json:"label"`
	FPS     float64   `json:"fps"`
	Frame   *int      `json:"frame,omitempty"` // Either frame or time must be set
	Time    *float64  `json:"time,omitempty"`  // Playback position in seconds
	Box     anno.Rect `json:"box"`
}

func (s *Server) httpCreateAnnotation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := createAnnotationJSON{}
	www.ReadJSON(w, r, &body, maxAnnotationBodyBytes)
	if body.FPS <= 0 {
		www.PanicBadRequestf("fps must be positive")
	}
	if body.Frame == nil && body.Time == nil {
		www.PanicBadRequestf("Must specify either frame or time")
	}
	var a *annostore.Annotation
	var err error
	if body.Frame != nil {
		a, err = s.Store.CreateAnnotation(body.VideoID, body.Label, body.FPS, *body.Frame, body.Box)
	} else {
		a, err = s.Store.CreateAnnotationAtTime(body.VideoID, body.Label, body.FPS, *body.Time, body.Box)
	}
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpListAnnotations(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	videoID := www.RequiredQueryInt64(r, "videoID")
	list, err := s.Store.ListAnnotations(videoID)
	www.Check(err)
	www.SendJSON(w, list)
}

func (s *Server) httpGetAnnotation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	a, err := s.Store.GetAnnotation(parseAnnotationID(params))
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpDeleteAnnotation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	checkAnno(s.Store.DeleteAnnotation(parseAnnotationID(params)))
	www.SendOK(w)
}

type boxAtFrameJSON struct {
	Visible bool       `json:"visible"`
	Box     *anno.Rect `json:"box,omitempty"`
}

func (s *Server) httpBoxAtFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := parseAnnotationID(params)
	frame := www.RequiredQueryInt(r, "frame")
	box, visible, err := s.Store.BoxAtFrame(id, frame)
	checkAnno(err)
	resp := boxAtFrameJSON{Visible: visible}
	if visible {
		resp.Box = &box
	}
	www.SendJSON(w, resp)
}

func (s *Server) httpMotionPath(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	path, err := s.Store.MotionPath(parseAnnotationID(params))
	checkAnno(err)
	www.SendJSON(w, path)
}

func (s *Server) httpHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	// Verify existence so that an unknown id is a 404 rather than an empty list
	id := parseAnnotationID(params)
	_, err := s.Store.GetAnnotation(id)
	checkAnno(err)
	www.SendJSON(w, s.Store.History(id))
}

type addKeyframeJSON struct {
	Frame *int      `json:"frame,omitempty"` // Either frame or time must be set
	Time  *float64  `json:"time,omitempty"`  // Playback position in seconds
	Box   anno.Rect `json:"box"`
}

func (s *Server) httpAddKeyframe(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := parseAnnotationID(params)
	body := addKeyframeJSON{}
	www.ReadJSON(w, r, &body, maxAnnotationBodyBytes)
	if body.Frame == nil && body.Time == nil {
		www.PanicBadRequestf("Must specify either frame or time")
	}
	var a *annostore.Annotation
	var err error
	if body.Frame != nil {
		a, err = s.Store.AddKeyframe(id, *body.Frame, body.Box)
	} else {
		a, err = s.Store.AddKeyframeAtTime(id, *body.Time, body.Box)
	}
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpUpdateKeyframe(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := parseAnnotationID(params)
	frame := parseFrame(params)
	box := anno.Rect{}
	www.ReadJSON(w, r, &box, maxAnnotationBodyBytes)
	a, err := s.Store.UpdateKeyframe(id, frame, box)
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpRemoveKeyframe(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	a, err := s.Store.RemoveKeyframe(parseAnnotationID(params), parseFrame(params))
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpCopyPreviousKeyframe(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	a, err := s.Store.CopyPreviousKeyframe(parseAnnotationID(params), parseFrame(params))
	checkAnno(err)
	www.SendJSON(w, a)
}

type updateSegmentJSON struct {
	Type          anno.SegmentType `json:"type"`
	ControlPoints []anno.Point     `json:"controlPoints,omitempty"`
}

func (s *Server) httpUpdateSegment(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := parseAnnotationID(params)
	index, err := strconv.Atoi(params.ByName("index"))
	if err != nil {
		www.PanicBadRequestf("Invalid segment index '%v'", params.ByName("index"))
	}
	body := updateSegmentJSON{}
	www.ReadJSON(w, r, &body, maxAnnotationBodyBytes)
	a, err := s.Store.UpdateSegment(id, index, body.Type, body.ControlPoints)
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpSetVisibility(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := parseAnnotationID(params)
	ranges := []anno.VisibilityRange{}
	www.ReadJSON(w, r, &ranges, maxAnnotationBodyBytes)
	a, err := s.Store.SetVisibilityRanges(id, ranges)
	checkAnno(err)
	www.SendJSON(w, a)
}

func (s *Server) httpUndo(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	a, err := s.Store.Undo(parseAnnotationID(params))
	checkAnno(err)
	www.SendJSON(w, a)
}
