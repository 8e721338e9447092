package storage

import "errors"

// errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrEmptyKey           = errors.New("storage key is empty")
	ErrNilStore           = errors.New("store is nil")
	ErrNilCache           = errors.New("cache is nil")
	ErrNilSink            = errors.New("audit sink is nil")
	ErrNilFormatter       = errors.New("key formatter is nil")
	ErrNilDatabase        = errors.New("database handle is nil")
	ErrBackendUnavailable = errors.New("storage backend is unavailable")
	ErrCouldNotComplete   = errors.New("could not complete operation")
)

// IsNotFound reports whether an error is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether an error is (or wraps) ErrAlreadyExists
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsBackendFault reports whether an error denotes a transient or
// persistent backend failure worth retrying
func IsBackendFault(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrCouldNotComplete)
}
