package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/apperror"
	"github.com/rocketscienceinc/msgapps-backend/internal/pkg"
)

// Router consumes inbound (user, text) events.
type Router interface {
	Route(ctx context.Context, user, text string)
}

// Server speaks newline-delimited JSON envelopes over plain TCP. A client
// first sends a connect envelope, then message envelopes; outbound delivery
// goes to whichever connection last identified as the user.
type Server struct {
	logger *slog.Logger

	mu       sync.Mutex
	conns    map[string]*connection
	listener net.Listener
}

// connection serializes writes to one client, so concurrent sends interleave
// whole envelopes and a stalled client only ever blocks its own writes.
type connection struct {
	mu   sync.Mutex
	conn net.Conn
}

func (that *connection) writeMessage(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := that.conn.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("%w: %s", apperror.ErrUserUnreachable, err)
	}

	return nil
}

func New(logger *slog.Logger) *Server {
	return &Server{
		logger: logger.With("component", "tcp"),
		conns:  make(map[string]*connection),
	}
}

// Start - listens on the given port and accepts connections until the context
// is canceled.
func (that *Server) Start(ctx context.Context, port string, router Router) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	that.mu.Lock()
	that.listener = listener
	that.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.handleConn(ctx, conn, router)
	}
}

// Addr - returns the listen address once Start has bound it.
func (that *Server) Addr() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.listener == nil {
		return ""
	}
	return that.listener.Addr().String()
}

// Send implements the app sender capability. Users without a live connection
// are unreachable; the caller decides whether that matters.
func (that *Server) Send(user, text string) error {
	that.mu.Lock()
	conn, ok := that.conns[user]
	that.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUserUnreachable, user)
	}

	return conn.writeMessage(Message{
		Action:  actionMessage,
		Payload: mustMarshal(TextPayload{User: user, Text: text}),
	})
}

func (that *Server) handleConn(ctx context.Context, netConn net.Conn, router Router) {
	log := that.logger.With("method", "handleConn", "remote", netConn.RemoteAddr().String())

	defer func() {
		_ = netConn.Close()
	}()

	conn := &connection{conn: netConn}

	user := ""
	defer func() {
		if user != "" {
			that.unregister(user, conn)
			log.Info("connection closed", "user", user)
		}
	}()

	scanner := bufio.NewScanner(netConn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		switch msg.Action {
		case actionConnect:
			var payload ConnectPayload
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					log.Error("failed to unmarshal connect payload", "error", err)
					continue
				}
			}

			if user != "" {
				that.unregister(user, conn)
			}

			user = payload.User
			if user == "" {
				user = pkg.GenerateUserID()
			}

			that.register(user, conn)
			log.Info("user connected", "user", user)

			if err := conn.writeMessage(Message{
				Action:  actionConnected,
				Payload: mustMarshal(ConnectPayload{User: user}),
			}); err != nil {
				log.Error("failed to confirm connect", "user", user, "error", err)
			}
		case actionMessage:
			if user == "" {
				log.Debug("dropping message from unidentified connection")
				continue
			}

			var payload TextPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				log.Error("failed to unmarshal text payload", "error", err)
				continue
			}

			router.Route(ctx, user, payload.Text)
		default:
			log.Debug("ignoring unknown action", "action", msg.Action)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Debug("connection read failed", "error", err)
	}
}

func (that *Server) register(user string, conn *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns[user] = conn
}

func (that *Server) unregister(user string, conn *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conns[user] == conn {
		delete(that.conns, user)
	}
}
