package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	sse "github.com/tmaxmax/go-sse"

	"github.com/couchcryptid/quake-feed/internal/store"
)

// handleStream sends the current state, then one "state" event per store
// notification. A slow client only ever gets the newest pending state.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Streams outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("clear write deadline failed", "error", err)
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	latest := make(chan store.State, 1)
	unsubscribe := s.store.Subscribe(func(st store.State) {
		select {
		case <-latest:
		default:
		}
		latest <- st
	})
	defer unsubscribe()

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if err := sendState(sess, s.store.State()); err != nil {
		s.logger.Warn("stream open failed", "error", err)
		return
	}
	if err := sess.Flush(); err != nil {
		s.logger.Warn("stream flush failed", "error", err)
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case st := <-latest:
			err = sendState(sess, st)
		case <-heartbeat.C:
			ping := &sse.Message{}
			ping.AppendComment("keep-alive")
			err = sess.Send(ping)
		}
		if err == nil {
			err = sess.Flush()
		}
		if err != nil {
			s.logger.Debug("stream closed", "error", err)
			return
		}
	}
}

// sendState writes st as a "state" event whose id is the store version, so a
// reconnecting client can report the last version it saw.
func sendState(sess *sse.Session, st store.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state event: %w", err)
	}
	msg := &sse.Message{
		ID:   sse.ID(strconv.FormatUint(st.Version, 10)),
		Type: sse.Type("state"),
	}
	msg.AppendData(string(data))
	return sess.Send(msg)
}
