package app

import "context"

// Sender delivers outbound text to a user. Implementations report delivery
// failures but apps treat sends as fire-and-forget.
type Sender interface {
	Send(user, text string) error
}

// App is one running per-user application instance.
type App interface {
	Start()
	Recv(ctx context.Context, text string)
	Stop()
	// Running reports whether the app still wants messages. The dispatcher
	// retires an app that stops running on its own.
	Running() bool
}

// Server registers an application with the dispatcher and vends instances of it.
type Server interface {
	Name() string
	Description() string
	New(user, content string, sender Sender) App
	Stop()
}

// Info describes a registered application.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Directory is the dispatcher surface the admin console reads from.
type Directory interface {
	ActiveUsers() []string
	Apps() []Info
}

// AccessList controls which users may start apps. An empty list means open access.
type AccessList interface {
	Allow(ctx context.Context, user string) error
	Deny(ctx context.Context, user string) error
	Allowed(ctx context.Context, user string) (bool, error)
	List(ctx context.Context) ([]string, error)
}
