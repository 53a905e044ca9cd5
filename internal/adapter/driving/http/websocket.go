package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/signalhub/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the deployment domains are known
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSConn adapts a gorilla connection to port.Conn. Writes are serialized by
// a mutex because acks and notices target the same connection from different
// goroutines (the owner's read loop and peers' read loops).
type WSConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *WSConn) Send(notice domain.Notice) error {
	return c.write(notice)
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}

func (c *WSConn) ack(seq uint64) error {
	return c.write(domain.Ack{Type: "ack", Seq: seq})
}

func (c *WSConn) ackStatus(seq uint64, status domain.BindStatus) error {
	return c.write(domain.Ack{Type: "ack", Seq: seq, Status: string(status)})
}

func (c *WSConn) ackIdentity(seq uint64, identity domain.Identity) error {
	return c.write(domain.Ack{Type: "ack", Seq: seq, Identity: identity.String()})
}

func (c *WSConn) ackError(seq uint64, err error) error {
	code := domain.CodeUnauthenticated
	var cerr *domain.CodeError
	if errors.As(err, &cerr) {
		code = cerr.Code
	}
	return c.write(domain.Ack{Type: "ack", Seq: seq, Error: code, Code: code.Wire()})
}

func (c *WSConn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(v)
}

// ServeWS upgrades the request and runs the connection's read loop. Every
// client call is answered with an ack echoing its seq; authentication must
// come first, anything else from an unauthenticated client is a hard
// violation that closes the connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	wsc := &WSConn{conn: conn, writeTimeout: h.writeTimeout}

	var identity domain.Identity
	authenticated := false

	defer func() {
		if authenticated {
			h.Gateway.Disconnect(identity, wsc)
		}
		conn.Close()
	}()

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("identity", identity.String()).Msg("Unexpected close error")
			}
			return
		}

		if env.Type == domain.TypeAuthentication {
			id, err := h.Gateway.Authenticate(r.Context(), env.Token, env.Version, env.Role, wsc)
			if err != nil {
				wsc.ackError(env.Seq, err)
				return
			}
			if authenticated && id != identity {
				// Re-authentication under a new identity: the old slot
				// is torn down as if the connection had dropped.
				h.Gateway.Disconnect(identity, wsc)
			}
			identity = id
			authenticated = true
			wsc.ackIdentity(env.Seq, identity)
			continue
		}

		if !authenticated {
			log.Warn().Str("type", env.Type).Msg("Call from unauthenticated client")
			wsc.ackError(env.Seq, domain.ErrUnauthenticated)
			return
		}

		h.dispatch(wsc, identity, env)
	}
}

func (h *Handler) dispatch(wsc *WSConn, identity domain.Identity, env domain.Envelope) {
	switch env.Type {
	case domain.TypeMessage:
		// The authenticated identity overwrites any caller-supplied from,
		// and the to field never reaches the recipient.
		if err := h.Gateway.Route(identity, domain.Identity(env.To), env.Payload); err != nil {
			wsc.ackError(env.Seq, err)
			return
		}
		wsc.ack(env.Seq)

	case domain.TypeRoomJoin:
		if err := h.Gateway.JoinRoom(env.RoomID, identity); err != nil {
			wsc.ackError(env.Seq, err)
			return
		}
		wsc.ack(env.Seq)

	case domain.TypeRoomLeave:
		h.Gateway.LeaveRoom(env.RoomID, identity)
		wsc.ack(env.Seq)

	case domain.TypeConversationStop, domain.TypeConversationDeny:
		if err := h.Gateway.StopPeer(identity, domain.Identity(env.To)); err != nil {
			wsc.ackError(env.Seq, err)
			return
		}
		wsc.ack(env.Seq)

	case domain.TypeInstanceBind:
		wsc.ackStatus(env.Seq, h.Gateway.BindInstance(identity, domain.Identity(env.To)))

	case domain.TypeInstanceRelease:
		h.Gateway.ReleaseInstance(identity, domain.Identity(env.To))
		wsc.ack(env.Seq)

	default:
		log.Warn().Str("type", env.Type).Msg("Unknown envelope type")
		wsc.ack(env.Seq)
	}
}
