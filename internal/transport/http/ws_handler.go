package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"quiz-arena/internal/app"
	"quiz-arena/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades connections and translates inbound player actions into
// registry operations. Validation rejections come back as caller-only
// quiz-master messages; room broadcasts flow through the hub from the
// registry's publisher goroutines.
type WSHandler struct {
	registry *app.Registry
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *app.Registry, hub *Hub) *WSHandler {
	return &WSHandler{
		registry: registry,
		hub:      hub,
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

type joinPayload struct {
	Name string `json:"name"`
}

type startPayload struct {
	GameID string `json:"gameId"`
}

type answerPayload struct {
	GameID         string `json:"gameId"`
	SelectedOption int    `json:"selectedOption"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// ServeWS handles one player connection for its whole lifetime. Closing the
// socket is an implicit disconnect: the player is removed from their game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	connID := h.hub.Register(ws)
	defer h.hub.Unregister(connID)
	defer h.registry.Disconnect(connID)

	snap, created, err := h.registry.Connect(r.Context(), connID)
	if err != nil {
		log.Printf("connect failed for %s: %v", connID, err)
		h.hub.Send(connID, envelope(domain.EventError, domain.ErrorPayload{Message: "failed to prepare a game"}))
		return
	}
	h.hub.JoinRoom(snap.GameID, connID)
	if created {
		h.hub.Send(connID, envelope(domain.EventGameCreated, domain.GameCreatedPayload{GameID: snap.GameID}))
	}
	h.masterSay(connID, h.registry.Master().Welcome())
	h.hub.Send(connID, envelope(domain.EventGameStateUpdate, lobbyPayload(snap, "welcome")))

	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "join":
			var payload joinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.Send(connID, envelope(domain.EventError, domain.ErrorPayload{Message: "invalid join payload"}))
				continue
			}
			info, snap, err := h.registry.Join(r.Context(), payload.Name, connID)
			if err != nil {
				h.masterSay(connID, h.registry.Master().Rejection(err))
				continue
			}
			h.hub.JoinRoom(snap.GameID, connID)
			h.hub.Send(connID, envelope(domain.EventPlayerJoined, info))

		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.Send(connID, envelope(domain.EventError, domain.ErrorPayload{Message: "invalid start payload"}))
				continue
			}
			if err := h.registry.Start(payload.GameID); err != nil {
				h.masterSay(connID, h.registry.Master().Rejection(err))
			}

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.Send(connID, envelope(domain.EventError, domain.ErrorPayload{Message: "invalid answer payload"}))
				continue
			}
			answer, _, err := h.registry.SubmitAnswer(payload.GameID, connID, payload.SelectedOption)
			if err != nil {
				h.masterSay(connID, h.registry.Master().Rejection(err))
				continue
			}
			h.hub.Send(connID, envelope(domain.EventAnswerSubmitted, domain.AnswerSubmittedPayload{
				SelectedOption: answer.SelectedOption,
				SubmittedAt:    answer.AnsweredAt,
			}))

		case "chat":
			var payload chatPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.masterSay(connID, h.registry.Master().GenerateReply(payload.Text))

		default:
			h.hub.Send(connID, envelope(domain.EventError, domain.ErrorPayload{Message: "unsupported message type"}))
		}
	}
}

func (h *WSHandler) masterSay(connID, text string) {
	h.hub.Send(connID, envelope(domain.EventQuizMasterMessage, domain.QuizMasterPayload{Text: text}))
}

func envelope(eventType string, payload any) domain.Envelope {
	return domain.NewEnvelope(eventType, payload, time.Now())
}

func lobbyPayload(snap app.Snapshot, message string) domain.LobbyUpdatePayload {
	return domain.LobbyUpdatePayload{
		State:       snap.State,
		Message:     message,
		GameID:      snap.GameID,
		Players:     snap.Players,
		PlayerCount: snap.PlayerCount,
		MaxPlayers:  snap.MaxPlayers,
		CanStart:    snap.CanStart,
	}
}
