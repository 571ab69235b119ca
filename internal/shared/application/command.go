package application

import "context"

// Command represents a command that modifies system state.
type Command interface {
	CommandName() string
}

// CommandHandler handles a specific command type.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, cmd C) error
}

// Query represents a read-only request.
type Query interface {
	QueryName() string
}

// QueryHandler handles a specific query type and returns a result.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}
