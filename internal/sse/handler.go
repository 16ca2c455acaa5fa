package sse

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var heartbeatInterval = 15 * time.Second

// Stream writes the events of topic to w until the final event is sent or
// the client disconnects. Events already published are replayed first,
// skipping those at or below the Last-Event-ID header.
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, topic string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return fmt.Errorf("sse: response writer does not support flushing")
	}

	replay, events, cancel, err := h.Subscribe(topic)
	if err != nil {
		http.Error(w, "Stream unavailable", http.StatusServiceUnavailable)
		return err
	}
	defer cancel()

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	lastID, _ := strconv.Atoi(r.Header.Get("Last-Event-ID"))
	for _, ev := range replay {
		if ev.ID <= lastID {
			continue
		}
		if err := writeEvent(w, ev); err != nil {
			return err
		}
		lastID = ev.ID
		if ev.Final {
			flusher.Flush()
			return nil
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		case ev := <-events:
			// subscribe raced with a publish already included in the replay
			if ev.ID <= lastID {
				continue
			}
			if err := writeEvent(w, ev); err != nil {
				return err
			}
			flusher.Flush()
			lastID = ev.ID
			if ev.Final {
				return nil
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev Event) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Name, ev.Data)
	return err
}
