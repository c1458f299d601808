package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"casper-learning/internal/app"
	"casper-learning/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per
// connection. Every state change is pushed as a "state" frame; the session is
// discarded when the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	moduleID := r.URL.Query().Get("moduleId")
	quizID := r.URL.Query().Get("quizId")
	if moduleID == "" || quizID == "" {
		http.Error(w, "missing moduleId or quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, moduleID, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: errorFor(ctx, err, moduleID)})
		return
	}
	sessionID := started.SessionID
	defer h.service.Discard(ctx, sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: errorFor(ctx, err, moduleID)})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("ws write error", "session_id", sessionID, "error", err)
				// Unblock the read loop.
				conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: newStateView(ctx, update)}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var (
			state     domain.SessionState
			intentErr error
		)
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				state, intentErr = h.service.State(ctx, sessionID)
				if intentErr == nil {
					intentErr = domain.ErrInvalidInput
				}
				break
			}
			state, intentErr = h.service.SelectAnswer(ctx, sessionID, *payload.Option)
		case "validate":
			state, intentErr = h.service.ValidateAnswer(ctx, sessionID)
		case "advance":
			state, intentErr = h.service.Advance(ctx, sessionID)
		case "retry":
			state, intentErr = h.service.Retry(ctx, sessionID)
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorFor(ctx, errUnsupportedMessage, moduleID)})
			continue
		}

		switch {
		case intentErr == nil:
			// Accepted intents are broadcast to the subscription.
		case errors.Is(intentErr, domain.ErrInvalidInput):
			// Guarded no-op: re-send the unchanged state.
			push(outboundMessage[any]{Type: "state", Payload: newStateView(ctx, state)})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorFor(ctx, intentErr, moduleID)})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
