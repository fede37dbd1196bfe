// Package discord connects the bot to Discord: a websocket gateway
// client for inbound events and a small REST client for outbound
// messages.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// GatewayURL is the Discord gateway endpoint, version pinned.
const GatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// reconnectBase is the initial backoff between connection attempts; it
// doubles up to reconnectMax.
const (
	reconnectBase = 2 * time.Second
	reconnectMax  = 2 * time.Minute
)

// Gateway maintains the websocket connection to Discord and delivers
// MESSAGE_CREATE events to a channel. It reconnects with backoff until
// its context is cancelled.
type Gateway struct {
	token  string
	url    string
	logger *slog.Logger

	messages  chan *Message
	seq       atomic.Int64
	botUserID atomic.Value // string, set on READY

	// Resume state from the last READY. Only touched from the Run
	// goroutine.
	sessionID string
	resumeURL string

	backoffBase time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewGateway creates a gateway client. Call Run to connect.
func NewGateway(token string, logger *slog.Logger) *Gateway {
	return &Gateway{
		token:       token,
		url:         GatewayURL,
		logger:      logger,
		messages:    make(chan *Message, 64),
		backoffBase: reconnectBase,
	}
}

// Messages returns the channel of inbound message events. Closed when
// Run returns.
func (g *Gateway) Messages() <-chan *Message {
	return g.messages
}

// BotUserID returns the bot's own user ID, or "" before the first
// READY event.
func (g *Gateway) BotUserID() string {
	id, _ := g.botUserID.Load().(string)
	return id
}

// Run connects to the gateway and processes events until ctx is
// cancelled, reconnecting on any connection loss.
func (g *Gateway) Run(ctx context.Context) error {
	defer close(g.messages)

	backoff := g.backoffBase
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := g.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		g.logger.Warn("gateway session ended, reconnecting",
			"error", err,
			"backoff", backoff,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, reconnectMax)
	}
}

// session runs one full gateway connection: hello, then identify or
// resume, heartbeat, dispatch. Returns when the connection drops or the
// server requests a reconnect.
func (g *Gateway) session(ctx context.Context) error {
	url := g.url
	resuming := g.sessionID != "" && g.resumeURL != ""
	if resuming {
		url = g.resumeURL
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	cancel()
	if err != nil {
		if resuming {
			// The resume endpoint may be gone; identify fresh next time.
			g.clearResumeState()
		}
		return fmt.Errorf("dial gateway: %w", err)
	}
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	defer conn.Close()

	hello, err := g.readPayload(conn)
	if err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloD helloData
	if err := json.Unmarshal(hello.D, &helloD); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	if resuming {
		if err := g.resume(conn); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
	} else {
		if err := g.identify(conn); err != nil {
			return fmt.Errorf("identify: %w", err)
		}
	}

	// Heartbeats run on their own goroutine for the life of this
	// session; the read loop below owns connection errors.
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go g.heartbeatLoop(hbCtx, conn, time.Duration(helloD.HeartbeatInterval)*time.Millisecond)

	g.logger.Info("gateway connected", "heartbeat_interval_ms", helloD.HeartbeatInterval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := g.readPayload(conn)
		if err != nil {
			return fmt.Errorf("gateway read: %w", err)
		}
		if p.S != nil {
			g.seq.Store(*p.S)
		}

		switch p.Op {
		case opDispatch:
			g.dispatch(p)
		case opHeartbeat:
			if err := g.sendHeartbeat(conn); err != nil {
				return fmt.Errorf("requested heartbeat: %w", err)
			}
		case opReconnect:
			return fmt.Errorf("server requested reconnect (op %d)", p.Op)
		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.D, &resumable)
			if !resumable {
				g.clearResumeState()
			}
			return fmt.Errorf("session invalidated (resumable=%t)", resumable)
		case opHeartbeatACK:
			// Nothing to do.
		default:
			g.logger.Debug("gateway unhandled op", "op", p.Op)
		}
	}
}

func (g *Gateway) dispatch(p *payload) {
	switch p.T {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(p.D, &ready); err != nil {
			g.logger.Warn("malformed READY event", "error", err)
			return
		}
		g.botUserID.Store(ready.User.ID)
		g.sessionID = ready.SessionID
		if ready.ResumeGatewayURL != "" {
			g.resumeURL = ready.ResumeGatewayURL + "/?v=10&encoding=json"
		}
		g.logger.Info("gateway ready", "bot_user", ready.User.Username, "bot_id", ready.User.ID)

	case "RESUMED":
		g.logger.Info("gateway session resumed")

	case "MESSAGE_CREATE":
		var msg Message
		if err := json.Unmarshal(p.D, &msg); err != nil {
			g.logger.Warn("malformed MESSAGE_CREATE event", "error", err)
			return
		}
		select {
		case g.messages <- &msg:
		default:
			g.logger.Warn("message channel full, dropping event", "channel_id", msg.ChannelID)
		}

	default:
		g.logger.Debug("gateway event ignored", "type", p.T)
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	return g.writeJSON(conn, map[string]any{
		"op": opIdentify,
		"d": identifyData{
			Token:   g.token,
			Intents: intentGuilds | intentGuildMessages | intentDirectMessages | intentMessageContent,
			Properties: identifyProperties{
				OS:      runtime.GOOS,
				Browser: "seerr-bot",
				Device:  "seerr-bot",
			},
		},
	})
}

func (g *Gateway) resume(conn *websocket.Conn) error {
	return g.writeJSON(conn, map[string]any{
		"op": opResume,
		"d": resumeData{
			Token:     g.token,
			SessionID: g.sessionID,
			Seq:       g.seq.Load(),
		},
	})
}

func (g *Gateway) clearResumeState() {
	g.sessionID = ""
	g.resumeURL = ""
	g.seq.Store(0)
}

func (g *Gateway) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.sendHeartbeat(conn); err != nil {
				g.logger.Debug("heartbeat write failed", "error", err)
				return
			}
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) error {
	var seq any
	if s := g.seq.Load(); s > 0 {
		seq = s
	}
	return g.writeJSON(conn, map[string]any{"op": opHeartbeat, "d": seq})
}

// writeJSON serializes writes; the heartbeat goroutine and the read
// loop's heartbeat responses share the connection.
func (g *Gateway) writeJSON(conn *websocket.Conn, v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

func (g *Gateway) readPayload(conn *websocket.Conn) (*payload, error) {
	var p payload
	if err := conn.ReadJSON(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
