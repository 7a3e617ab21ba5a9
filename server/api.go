package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	route := func(method, path string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, path, handle)
	}

	// ratelimited guards the endpoints that create DB rows. We create a unique
	// rate limiter per endpoint, so httprate.KeyByIP is sufficient.
	ratelimited := func(method, path string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, path, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	route("GET", "/api/ping", s.httpPing)

	ratelimited("POST", "/api/annotation", s.httpCreateAnnotation, 60, time.Minute)
	route("GET", "/api/annotations", s.httpListAnnotations)
	route("GET", "/api/annotation/:id", s.httpGetAnnotation)
	route("DELETE", "/api/annotation/:id", s.httpDeleteAnnotation)

	route("GET", "/api/annotation/:id/box", s.httpBoxAtFrame)
	route("GET", "/api/annotation/:id/path", s.httpMotionPath)
	route("GET", "/api/annotation/:id/history", s.httpHistory)

	route("POST", "/api/annotation/:id/keyframe", s.httpAddKeyframe)
	route("PUT", "/api/annotation/:id/keyframe/:frame", s.httpUpdateKeyframe)
	route("DELETE", "/api/annotation/:id/keyframe/:frame", s.httpRemoveKeyframe)
	route("POST", "/api/annotation/:id/keyframe/:frame/copyPrevious", s.httpCopyPreviousKeyframe)

	route("PUT", "/api/annotation/:id/segment/:index", s.httpUpdateSegment)
	route("PUT", "/api/annotation/:id/visibility", s.httpSetVisibility)
	route("POST", "/api/annotation/:id/undo", s.httpUndo)

	route("GET", "/api/ws/annotations", s.httpWatchAnnotations)

	s.httpRouter = router
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, map[string]any{
		"time": time.Now().Unix(),
	})
}
