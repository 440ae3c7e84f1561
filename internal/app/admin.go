package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const adminHelp = `Commands:
    users - list users with a running app
    apps - list registered apps
    allow <user> - add a user to the allowlist
    deny <user> - remove a user from the allowlist
    allowed - show the allowlist
    exit - leave the admin console`

// Admin is the operator console. Only users named in the server's admin list
// get past Start; everyone else is turned away immediately.
type Admin struct {
	logger *slog.Logger

	user   string
	sender Sender

	directory Directory
	access    AccessList

	mu   sync.Mutex
	done bool
}

type AdminServer struct {
	logger *slog.Logger

	directory Directory
	access    AccessList
	admins    []string
}

func NewAdminServer(logger *slog.Logger, directory Directory, access AccessList, admins []string) *AdminServer {
	return &AdminServer{
		logger:    logger.With("component", "admin"),
		directory: directory,
		access:    access,
		admins:    admins,
	}
}

func (that *AdminServer) Name() string { return "Admin" }

func (that *AdminServer) Description() string { return "Operator console for this server" }

func (that *AdminServer) New(user, _ string, sender Sender) App {
	admin := &Admin{
		logger:    that.logger,
		user:      user,
		sender:    sender,
		directory: that.directory,
		access:    that.access,
	}

	if !that.isAdmin(user) {
		admin.done = true
	}

	return admin
}

func (that *AdminServer) Stop() {}

func (that *AdminServer) isAdmin(user string) bool {
	for _, admin := range that.admins {
		if admin == user {
			return true
		}
	}
	return false
}

func (that *Admin) Start() {
	that.mu.Lock()
	done := that.done
	that.mu.Unlock()

	if done {
		_ = that.sender.Send(that.user, "You are not an administrator.")
		return
	}

	_ = that.sender.Send(that.user, "Welcome to the admin console.\n"+adminHelp)
}

func (that *Admin) Recv(ctx context.Context, text string) {
	log := that.logger.With("method", "Recv")

	fields := strings.Fields(text)
	if len(fields) == 0 {
		_ = that.sender.Send(that.user, adminHelp)
		return
	}

	switch strings.ToLower(fields[0]) {
	case "users":
		users := that.directory.ActiveUsers()
		_ = that.sender.Send(that.user, fmt.Sprintf("Active users (%d):\n%s", len(users), strings.Join(users, "\n")))
	case "apps":
		output := "Registered apps:\n"
		for _, info := range that.directory.Apps() {
			output += fmt.Sprintf("%s    %s\n", info.Name, info.Description)
		}
		_ = that.sender.Send(that.user, output)
	case "allow":
		that.updateAccess(ctx, fields, "allow")
	case "deny":
		that.updateAccess(ctx, fields, "deny")
	case "allowed":
		if that.access == nil {
			_ = that.sender.Send(that.user, "User access control is not configured.")
			return
		}
		users, err := that.access.List(ctx)
		if err != nil {
			log.Error("failed to list allowed users", "error", err)
			_ = that.sender.Send(that.user, "Failed to read the allowlist.")
			return
		}
		if len(users) == 0 {
			_ = that.sender.Send(that.user, "The allowlist is empty: everyone is allowed.")
			return
		}
		_ = that.sender.Send(that.user, "Allowed users:\n"+strings.Join(users, "\n"))
	case "exit":
		that.mu.Lock()
		that.done = true
		that.mu.Unlock()
		_ = that.sender.Send(that.user, "Leaving the admin console.")
	default:
		_ = that.sender.Send(that.user, adminHelp)
	}
}

func (that *Admin) updateAccess(ctx context.Context, fields []string, action string) {
	log := that.logger.With("method", "updateAccess")

	if that.access == nil {
		_ = that.sender.Send(that.user, "User access control is not configured.")
		return
	}

	if len(fields) != 2 {
		_ = that.sender.Send(that.user, fmt.Sprintf("Usage: %s <user>", action))
		return
	}

	target := fields[1]

	var err error
	if action == "allow" {
		err = that.access.Allow(ctx, target)
	} else {
		err = that.access.Deny(ctx, target)
	}

	if err != nil {
		log.Error("failed to update allowlist", "action", action, "user", target, "error", err)
		_ = that.sender.Send(that.user, "Failed to update the allowlist.")
		return
	}

	_ = that.sender.Send(that.user, fmt.Sprintf("Done: %s %s", action, target))
}

func (that *Admin) Stop() {}

func (that *Admin) Running() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return !that.done
}
