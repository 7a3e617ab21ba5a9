package annostore

import (
	"github.com/vidtag/vidtag/pkg/anno"
	"github.com/vidtag/vidtag/pkg/gen"
)

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// Change is broadcast to watchers after every successful mutation.
// Sequence is a snapshot owned by the receiver; the store never writes to it again.
type Change struct {
	AnnotationID int64          `json:"annotationID"`
	Op           string         `json:"op"`
	Sequence     *anno.Sequence `json:"sequence,omitempty"`
}

// AddWatcher registers to receive a notification for every annotation change.
func (s *Store) AddWatcher() chan *Change {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()
	ch := make(chan *Change, WatcherChannelSize)
	s.watchers = append(s.watchers, ch)
	return ch
}

// RemoveWatcher unregisters a watcher channel.
func (s *Store) RemoveWatcher(ch chan *Change) {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = gen.DeleteFromSliceUnordered(s.watchers, i)
			return
		}
	}
	s.log.Warnf("Store.RemoveWatcher failed to find channel")
}

func (s *Store) sendToWatchers(change *Change) {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()
	for _, ch := range s.watchers {
		// SYNC-WATCHER-CHANNEL-SIZE
		// If a watcher stalls, we drop notifications rather than stalling the
		// mutation path (and every other watcher) with it.
		if len(ch) >= cap(ch)*9/10 {
			s.log.Warnf("Annotation watcher is falling behind. Dropping change notifications.")
		} else {
			ch <- change
		}
	}
}
