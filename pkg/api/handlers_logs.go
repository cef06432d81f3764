package api

import (
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/pools"
)

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.getLogs(w, r) }).
		NotAllowed()
}

// getLogs serves the terminal buffer. Without parameters the whole text is
// returned and the page swaps its terminal content for it. With ?after=seq
// only newer entries come back, for clients that append instead.
func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid after parameter")
			return
		}
		s.respondJSON(w, http.StatusOK, LogsResponse{
			Entries: s.ring.Since(after),
			LastSeq: s.ring.LastSeq(),
			Dropped: s.ring.Dropped(),
		})
		return
	}

	s.respondJSON(w, http.StatusOK, LogsResponse{
		Text:    s.ring.Text(),
		LastSeq: s.ring.LastSeq(),
	})
}

// handleLogStream follows the buffer live over SSE. Each entry goes out as
// one "log" event carrying the entry as JSON. Slow clients lose entries
// rather than slowing the writer; a dropped subscription simply ends the
// stream and the client reconnects with ?after=.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the catch-up read so nothing falls between them.
	sub := s.ring.Subscribe(r.Context())
	if sub == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	defer sub.Unsubscribe()

	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		after, _ = strconv.ParseUint(raw, 10, 64)
	}

	var lastSent uint64
	for _, entry := range s.ring.Since(after) {
		sendLogEvent(w, entry)
		lastSent = entry.Seq
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, open := <-sub.Channel():
			if !open {
				return
			}
			// The subscription may replay entries the catch-up already sent.
			if entry.Seq <= lastSent {
				continue
			}
			sendLogEvent(w, entry)
			lastSent = entry.Seq
			flusher.Flush()
		}
	}
}

// sendLogEvent writes one SSE event framed around the JSON entry. The frame
// is assembled in a pooled buffer; the ResponseWriter copies on Write, so
// returning the buffer afterwards is safe.
func sendLogEvent(w io.Writer, entry logring.Entry) {
	buf := pools.GetBuffer()
	defer pools.PutBuffer(buf)

	buf.WriteString("event: log\ndata: ")
	enc := json.NewEncoder(buf)
	if err := enc.Encode(entry); err != nil {
		return
	}
	// Encode terminates the JSON with a newline, which doubles as the first
	// of the two newlines ending the frame.
	buf.WriteByte('\n')
	w.Write(buf.Bytes())
}
