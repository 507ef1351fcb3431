package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
)

// Handler answers one inbound frame. A nil envelope means no reply is owed;
// turret results and other one-way messages use that.
type Handler func(env Envelope) (*Envelope, error)

// Connection carries one player's session. Frames are handled strictly in
// arrival order, so a game_state is never allocated before its hello.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	Player   string

	wmu sync.Mutex
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{conn: conn, handlers: handlers}
}

// RegisterHandler must be called before ReadLoop starts.
func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Send pushes an unsolicited frame, such as a turret command, to the game.
// Writes are serialised with replies.
func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return WriteEnvelope(c.conn, env)
}

func (c *Connection) Close() error { return c.conn.Close() }

// ReadLoop handles frames until the game disconnects or a reply cannot be
// written. A failing handler costs only its own frame. The socket is closed on
// return.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				slog.Info("game disconnected", "player", c.Player)
			} else {
				slog.Warn("dropping session on bad frame", "player", c.Player, "error", err)
			}
			return
		}

		reply, err := c.dispatch(env)
		if err != nil {
			slog.Error("frame rejected", "player", c.Player, "type", env.Type, "error", err)
			continue
		}
		if reply == nil {
			continue
		}
		if err := c.write(*reply); err != nil {
			slog.Error("reply not delivered, closing session", "player", c.Player, "type", reply.Type, "error", err)
			return
		}
		slog.Debug("replied", "player", c.Player, "type", reply.Type)
	}
}

// dispatch routes env to its handler. Unknown types get no reply and no error.
func (c *Connection) dispatch(env Envelope) (*Envelope, error) {
	handler, ok := c.handlers[env.Type]
	if !ok {
		slog.Debug("ignoring unhandled frame", "player", c.Player, "type", env.Type)
		return nil, nil
	}
	reply, err := handler(env)
	if err != nil {
		return nil, fmt.Errorf("%s handler: %w", env.Type, err)
	}
	return reply, nil
}
