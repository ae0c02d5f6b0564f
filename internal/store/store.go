package store

import "context"

// Store is the durable key-value backend shared by cart instances. One key
// maps to the serialised representation of one cart.
type Store interface {
	// Load reads the payload stored under key. It reports whether the key
	// existed.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save overwrites the payload stored under key and announces the new
	// value on the key's change channel.
	Save(ctx context.Context, key string, payload []byte) error
	// Watch subscribes to change announcements for key. The returned stop
	// function tears the subscription down and closes the channel. Writes
	// made through this store instance are delivered too; consumers filter
	// against already-applied state.
	Watch(ctx context.Context, key string) (<-chan []byte, func(), error)
}
