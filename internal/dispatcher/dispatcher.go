package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/rocketscienceinc/msgapps-backend/internal/app"
)

type running struct {
	app    app.App
	server app.Server
}

// Dispatcher routes inbound messages to at most one running app per user and
// intercepts the reserved commands listapps, startapp, currentapp and endapp.
type Dispatcher struct {
	logger *slog.Logger
	sender app.Sender
	access app.AccessList

	mu       sync.Mutex
	servers  map[string]app.Server
	order    []string
	sessions map[string]*running
}

func New(logger *slog.Logger, sender app.Sender, access app.AccessList) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		sender:   sender,
		access:   access,
		servers:  make(map[string]app.Server),
		sessions: make(map[string]*running),
	}
}

// Register - adds an app server to the registry under its lowercase name.
func (that *Dispatcher) Register(server app.Server) {
	that.mu.Lock()
	defer that.mu.Unlock()

	name := strings.ToLower(server.Name())
	if _, ok := that.servers[name]; ok {
		return
	}

	that.servers[name] = server
	that.order = append(that.order, name)
}

// Route - handles one inbound message. Reserved commands are matched
// case-insensitively by prefix; everything else goes to the user's running
// app, or is dropped when there is none.
func (that *Dispatcher) Route(ctx context.Context, user, text string) {
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "listapps"):
		that.listApps(user)
	case strings.HasPrefix(lower, "startapp"):
		that.startApp(ctx, user, text)
	case strings.HasPrefix(lower, "currentapp"):
		that.currentApp(user)
	case strings.HasPrefix(lower, "endapp"):
		that.endApp(user)
	default:
		that.forward(ctx, user, text)
	}
}

func (that *Dispatcher) forward(ctx context.Context, user, text string) {
	that.mu.Lock()
	entry := that.sessions[user]
	that.mu.Unlock()

	if entry == nil {
		that.logger.Debug("dropping message from user without a running app", "user", user)
		return
	}

	entry.app.Recv(ctx, text)

	// Apps signal their own termination by no longer running; the dispatcher
	// retires them instead of a callback captured at construction time.
	if entry.app.Running() {
		return
	}

	that.mu.Lock()
	if that.sessions[user] == entry {
		delete(that.sessions, user)
	}
	that.mu.Unlock()

	entry.app.Stop()
	that.send(user, fmt.Sprintf("Stopped %s", entry.server.Name()))
}

func (that *Dispatcher) listApps(user string) {
	output := "Here's a list of installed apps, contact your admin to install more!\n\n"
	for _, info := range that.Apps() {
		output += fmt.Sprintf("%s    %s\n", info.Name, info.Description)
	}

	that.send(user, output)
}

func (that *Dispatcher) startApp(ctx context.Context, user, content string) {
	log := that.logger.With("method", "startApp")

	fields := strings.Fields(content)
	name := strings.ToLower(strings.Join(fields[1:], " "))

	that.mu.Lock()
	server, ok := that.servers[name]
	_, alreadyRunning := that.sessions[user]
	that.mu.Unlock()

	if !ok {
		that.send(user, "Couldn't find an app with that name. Use `listapps` to list all apps")
		return
	}

	if alreadyRunning {
		that.send(user, "You already have a running app! Use `endapp` to close it")
		return
	}

	if that.access != nil {
		allowed, err := that.access.Allowed(ctx, user)
		if err != nil {
			log.Error("failed to check user access", "user", user, "error", err)
			that.send(user, "Something went wrong, please try again later.")
			return
		}
		if !allowed {
			that.send(user, "You are not allowed to start apps on this server.")
			return
		}
	}

	instance := server.New(user, content, that.sender)

	that.mu.Lock()
	if _, exists := that.sessions[user]; exists {
		that.mu.Unlock()
		that.send(user, "You already have a running app! Use `endapp` to close it")
		return
	}
	that.sessions[user] = &running{app: instance, server: server}
	that.mu.Unlock()

	that.send(user, fmt.Sprintf("Starting app %s", server.Name()))
	instance.Start()
}

func (that *Dispatcher) currentApp(user string) {
	that.mu.Lock()
	entry := that.sessions[user]
	that.mu.Unlock()

	if entry == nil {
		that.send(user, "You're not currently running any apps.")
		return
	}

	that.send(user, fmt.Sprintf("%s    %s", entry.server.Name(), entry.server.Description()))
}

func (that *Dispatcher) endApp(user string) {
	that.mu.Lock()
	entry := that.sessions[user]
	delete(that.sessions, user)
	that.mu.Unlock()

	if entry == nil {
		that.send(user, "You're not currently running any apps.")
		return
	}

	entry.app.Stop()
	that.send(user, fmt.Sprintf("Stopped %s", entry.server.Name()))
}

// Shutdown - stops every running app (forfeiting in-progress matches), tells
// the affected users, then stops every registered app server.
func (that *Dispatcher) Shutdown() {
	that.mu.Lock()
	sessions := that.sessions
	that.sessions = make(map[string]*running)
	servers := make([]app.Server, 0, len(that.order))
	for _, name := range that.order {
		servers = append(servers, that.servers[name])
	}
	that.mu.Unlock()

	for user, entry := range sessions {
		entry.app.Stop()
		that.send(user, "SERVER IS SHUTTING DOWN...")
	}

	for _, server := range servers {
		server.Stop()
	}

	that.logger.Info("dispatcher shut down", "stopped_sessions", len(sessions))
}

// ActiveUsers implements app.Directory.
func (that *Dispatcher) ActiveUsers() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	users := make([]string, 0, len(that.sessions))
	for user := range that.sessions {
		users = append(users, user)
	}
	sort.Strings(users)

	return users
}

// Apps implements app.Directory.
func (that *Dispatcher) Apps() []app.Info {
	that.mu.Lock()
	defer that.mu.Unlock()

	infos := make([]app.Info, 0, len(that.order))
	for _, name := range that.order {
		server := that.servers[name]
		infos = append(infos, app.Info{Name: server.Name(), Description: server.Description()})
	}

	return infos
}

func (that *Dispatcher) send(user, text string) {
	if err := that.sender.Send(user, text); err != nil {
		that.logger.Debug("failed to deliver message", "user", user, "error", err)
	}
}
