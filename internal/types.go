package internal

import "context"

type Configurer interface {
	Configure(envs map[string]string) error
}

type Opener interface {
	Open(ctx context.Context) error
	Closer
}

type Closer interface {
	Close(ctx context.Context) error
}

type Clearer interface {
	Clear(ctx context.Context) error
}

// Addresser is implemented by components that listen on a network
// address which is only known once they've been opened
type Addresser interface {
	Address() string
}
