package expense

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/expense"
	httpauth "github.com/MrJamesThe3rd/tally/internal/http/auth"
)

const keepAliveInterval = 15 * time.Second

// streamSnapshots pushes every snapshot of the caller's records as a
// Server-Sent Event until the client disconnects or the subscription fails.
func (h *Handler) streamSnapshots(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.stream.Subscribe(r.Context(), httpauth.UserID(r.Context()))
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		http.Error(w, "remote store unavailable", http.StatusBadGateway)

		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	category := selectedCategory(r)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case snap, open := <-sub.Updates():
			if !open {
				if err := sub.Err(); err != nil {
					_ = writeEvent(w, "error", map[string]string{"error": err.Error()})
					flusher.Flush()
				}

				return
			}

			records := expense.FilterByCategory(snap.Records, category)
			if err := writeEvent(w, "snapshot", toResponseList(records)); err != nil {
				slog.Debug("client went away", "error", err)
				return
			}

			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}

			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	return nil
}
