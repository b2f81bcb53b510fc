package store

import "fmt"

// NewStore builds a Store backend by name. Supported kinds are "fs" (the
// default) and "sqlite"; the sqlite backend is only available in builds with
// the sqlite tag.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(path)
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes backends that hold resources (e.g. the sqlite
// connection); filesystem stores are a no-op.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
