package app

import "context"

type Echo struct {
	user   string
	sender Sender
}

type EchoServer struct{}

func NewEchoServer() *EchoServer {
	return &EchoServer{}
}

func (that *EchoServer) Name() string { return "Echo" }

func (that *EchoServer) Description() string { return "A simple echo app" }

func (that *EchoServer) New(user, _ string, sender Sender) App {
	return &Echo{user: user, sender: sender}
}

func (that *EchoServer) Stop() {}

func (that *Echo) Start() {
	_ = that.sender.Send(that.user, "Welcome to echo! Anything you send will be echoed back.")
}

func (that *Echo) Recv(_ context.Context, text string) {
	_ = that.sender.Send(that.user, text)
}

func (that *Echo) Stop() {}

func (that *Echo) Running() bool { return true }
