package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/CUknot/chat_backend/services"
)

// Client frame types.
const (
	FrameSendMessage = "send-message"
	FrameMarkRead    = "mark-read"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameEnterRoom   = "enter-room"
	FrameLeaveRoom   = "leave-room"
	FramePing        = "ping"
)

// Server-only frame types. Event frames reuse the event type names.
const (
	FrameAck   = "ack"
	FrameError = "error"
	FramePong  = "pong"
)

const frameTimeout = 10 * time.Second

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type roomPayload struct {
	RoomID uint `json:"roomId"`
}

type markReadPayload struct {
	RoomID            uint `json:"roomId"`
	LastReadMessageID uint `json:"lastReadMessageId"`
}

// Dispatcher executes client frames against the chat services.
type Dispatcher struct {
	chat    *services.ChatService
	read    *services.ReadService
	hub     *Hub
	timeout time.Duration
}

func NewDispatcher(hub *Hub, chat *services.ChatService, read *services.ReadService) *Dispatcher {
	return &Dispatcher{chat: chat, read: read, hub: hub, timeout: frameTimeout}
}

// handle runs one frame. The context is detached from the connection so a
// disconnect never aborts a send that already started.
func (d *Dispatcher) handle(c *Client, raw []byte) {
	var in Frame
	if err := json.Unmarshal(raw, &in); err != nil {
		d.reply(c, FrameError, "", services.Invalid("INVALID_FRAME", "frame is not valid JSON"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	result, err := d.execute(ctx, c, in)
	if err != nil {
		e := services.AsError(err)
		if e.Status >= 500 {
			log.Printf("ws: %s from user %d: %v", in.Type, c.UserID, err)
		}
		d.reply(c, FrameError, in.RequestID, e)
		return
	}
	if in.Type == FramePing {
		d.reply(c, FramePong, in.RequestID, nil)
		return
	}
	d.reply(c, FrameAck, in.RequestID, result)
}

func (d *Dispatcher) execute(ctx context.Context, c *Client, in Frame) (any, error) {
	switch in.Type {
	case FrameSendMessage:
		var req services.SendRequest
		if err := decode(in.Payload, &req); err != nil {
			return nil, err
		}
		req.SenderID = c.UserID
		return d.chat.SendUserMessage(ctx, req)

	case FrameMarkRead:
		var p markReadPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return d.read.MarkRead(ctx, c.UserID, p.RoomID, p.LastReadMessageID)

	case FrameSubscribe:
		var p roomPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if _, err := d.chat.GetRoom(ctx, c.UserID, p.RoomID); err != nil {
			return nil, err
		}
		d.hub.subscribe(c, p.RoomID)
		return p, nil

	case FrameUnsubscribe:
		var p roomPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		d.hub.unsubscribe(c, p.RoomID)
		return p, nil

	case FrameEnterRoom:
		var p roomPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		receipt, err := d.read.EnterRoom(ctx, c.UserID, p.RoomID)
		if err != nil {
			return nil, err
		}
		d.hub.subscribe(c, p.RoomID)
		c.setPresent(p.RoomID)
		return receipt, nil

	case FrameLeaveRoom:
		d.read.LeavePresence(ctx, c.UserID)
		c.setPresent(0)
		return nil, nil

	case FramePing:
		return nil, nil
	}
	return nil, services.Invalid("UNKNOWN_FRAME", "unknown frame type "+in.Type)
}

// disconnected clears the presence this connection set, unless another
// connection of the same user has since entered a different room.
func (d *Dispatcher) disconnected(c *Client) {
	roomID := c.presentRoom()
	if roomID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	d.read.ClearPresenceIf(ctx, c.UserID, roomID)
}

func (d *Dispatcher) reply(c *Client, frameType, requestID string, payload any) {
	out := Frame{Type: frameType, RequestID: requestID}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Printf("ws: encode %s reply: %v", frameType, err)
			return
		}
		out.Payload = body
	}
	frame, err := json.Marshal(out)
	if err != nil {
		log.Printf("ws: encode %s frame: %v", frameType, err)
		return
	}
	c.Send(frame)
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return services.Invalid("INVALID_PAYLOAD", "payload is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return services.Invalid("INVALID_PAYLOAD", "payload is malformed")
	}
	return nil
}
