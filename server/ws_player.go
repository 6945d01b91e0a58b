package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"CrossFM/core/player"
	"CrossFM/logger"
	"CrossFM/model"

	"github.com/gorilla/websocket"
)

// MessageType tags a websocket message.
type MessageType string

const (
	// client -> server transport commands
	MsgTypePlay      MessageType = "play"
	MsgTypePause     MessageType = "pause"
	MsgTypeResume    MessageType = "resume"
	MsgTypeSeek      MessageType = "seek"
	MsgTypeSeekStart MessageType = "seek_start"
	MsgTypeSeekEnd   MessageType = "seek_end"
	MsgTypeNext      MessageType = "next"
	MsgTypePrev      MessageType = "prev"
	MsgTypePing      MessageType = "ping"

	// server -> client
	MsgTypeState MessageType = "state"
	MsgTypeError MessageType = "error"
	MsgTypePong  MessageType = "pong"
)

// WSMessage is the websocket envelope.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandData carries the command parameters.
type CommandData struct {
	TrackID  string  `json:"trackId,omitempty"`
	Position float64 `json:"position,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PlayerHub fans transport-state snapshots out to connected clients and
// accepts transport commands from them. It is a best-effort side channel:
// a dead client or a full send buffer never stalls the player.
type PlayerHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	ctrl    *player.Controller
}

// NewPlayerHub creates the hub.
func NewPlayerHub(ctrl *player.Controller) *PlayerHub {
	return &PlayerHub{
		clients: make(map[*websocket.Conn]chan []byte),
		ctrl:    ctrl,
	}
}

// Broadcast sends a state snapshot to every connected client. Clients that
// cannot keep up are skipped.
func (h *PlayerHub) Broadcast(state model.PlayerState) {
	msg := WSMessage{Type: MsgTypeState, Timestamp: time.Now().UnixMilli()}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	msg.Data = data
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			logger.Debug("dropping state frame for slow client", logger.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// HandleWS upgrades the connection and runs the read/write loops.
func (h *PlayerHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	send := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	logger.Info("player client connected", logger.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(conn, send)
	h.readLoop(conn)

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	close(send)
	conn.Close()
	logger.Info("player client disconnected", logger.String("remote", conn.RemoteAddr().String()))
}

func (h *PlayerHub) writeLoop(conn *websocket.Conn, send chan []byte) {
	for payload := range send {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (h *PlayerHub) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(conn, "invalid message")
			continue
		}

		var data CommandData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				h.sendError(conn, "invalid command data")
				continue
			}
		}

		if err := h.dispatch(msg.Type, data, conn); err != nil {
			h.sendError(conn, err.Error())
		}
	}
}

func (h *PlayerHub) dispatch(msgType MessageType, data CommandData, conn *websocket.Conn) error {
	switch msgType {
	case MsgTypePlay:
		return h.ctrl.Play(data.TrackID)
	case MsgTypePause:
		return h.ctrl.Pause()
	case MsgTypeResume:
		return h.ctrl.Resume()
	case MsgTypeSeek:
		return h.ctrl.Seek(data.Position)
	case MsgTypeSeekStart:
		h.ctrl.BeginSeek()
		return nil
	case MsgTypeSeekEnd:
		h.ctrl.EndSeek()
		return nil
	case MsgTypeNext:
		return h.ctrl.Next()
	case MsgTypePrev:
		return h.ctrl.Previous()
	case MsgTypePing:
		h.send(conn, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		return nil
	default:
		logger.Debug("unknown message type", logger.String("type", string(msgType)))
		return nil
	}
}

func (h *PlayerHub) sendError(conn *websocket.Conn, message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	h.send(conn, WSMessage{Type: MsgTypeError, Data: data, Timestamp: time.Now().UnixMilli()})
}

func (h *PlayerHub) send(conn *websocket.Conn, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	send, ok := h.clients[conn]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case send <- payload:
	default:
	}
}
