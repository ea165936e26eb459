package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"questbooking/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The widget is same-origin; tighten if it ever isn't.
		return true
	},
}

// EventsHandler streams change-signal topic names to connected clients
// over a websocket. Frames carry only the topic; clients refetch full
// state on receipt.
type EventsHandler struct {
	Notifier *service.Notifier
}

func NewEventsHandler(notifier *service.Notifier) *EventsHandler {
	return &EventsHandler{Notifier: notifier}
}

func (h *EventsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	bookings, cancelBookings := h.Notifier.Subscribe(service.TopicBookingsChanged)
	blocked, cancelBlocked := h.Notifier.Subscribe(service.TopicBlockedDatesChanged)
	defer cancelBookings()
	defer cancelBlocked()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// Keeps the connection registered until the client goes away.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for {
		var topic service.Topic
		select {
		case topic = <-bookings:
		case topic = <-blocked:
		case <-done:
			return
		}
		if topic == "" {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(topic)); err != nil {
			log.Debug().Err(err).Msg("event feed write failed, dropping client")
			return
		}
	}
}
