package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/drillmap/internal/adapters/nats"
	"github.com/samirrijal/drillmap/internal/core/domain"
	"github.com/samirrijal/drillmap/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to dataset events.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Dataset string `json:"dataset"` // dataset ID filter (optional, "" = all)
	Event   string `json:"event"`   // "processed" | "reprocessed" | "deleted" | "" (all)
}

// wsSubject validates a client filter and maps it to a NATS subject.
func wsSubject(m wsMessage) (string, string) {
	switch m.Event {
	case "", domain.EventDatasetProcessed, domain.EventDatasetReprocessed, domain.EventDatasetDeleted:
	default:
		return "", "unknown event: " + m.Event
	}
	if strings.ContainsAny(m.Dataset, ".*> \t") {
		return "", "invalid dataset id"
	}
	return natsadapter.DatasetSubjectFilter(m.Event, m.Dataset), ""
}

// WebSocketHandler relays dataset events from NATS to connected clients.
// Every client starts subscribed to all dataset events and can narrow or
// widen that with {"action":"subscribe","dataset":"<id>","event":"reprocessed"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remote := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remote)
		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event stream not available"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		subs := make(map[string]*nats.Subscription)
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
		}()

		sub, err := nc.Subscribe(natsadapter.DatasetSubjectAll, relay)
		if err != nil {
			logger.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.DatasetSubjectAll] = sub

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject, problem := wsSubject(m)
			if problem != "" {
				_ = writeJSON(map[string]string{"error": problem})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, ok := subs[subject]; ok {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				s, ok := subs[subject]
				if !ok {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Info("ws client disconnected")
	}
}
