// Package keyring wraps the OS-native credential manager with a hard
// per-call deadline. Native keychain prompts can hang indefinitely; every
// operation here runs on its own goroutine and the caller waits at most
// three seconds before giving up with a TimeoutError.
package keyring

import (
	"errors"
	"time"

	"github.com/zalando/go-keyring"
)

// timeout is the hard deadline for a single keychain operation.
const timeout = 3 * time.Second

// ErrNotFound is returned by Get when no secret exists for the given
// service and user. A missing entry is a normal condition, not a failure.
var ErrNotFound = errors.New("secret not found in keyring")

// TimeoutError reports a keychain call that exceeded its deadline. It is a
// distinct error kind so callers never mistake a hung credential prompt for
// a missing entry.
type TimeoutError struct {
	message string
}

func (e *TimeoutError) Error() string {
	return e.message
}

// Set stores a secret in the keyring for the given service and user.
func Set(service, user, secret string) error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- keyring.Set(service, user, secret)
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return &TimeoutError{"timeout while trying to set secret in keyring"}
	}
}

// Get retrieves a secret from the keyring for the given service and user.
func Get(service, user string) (string, error) {
	type result struct {
		val string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer close(ch)
		val, err := keyring.Get(service, user)
		ch <- result{val, err}
	}()
	select {
	case res := <-ch:
		if errors.Is(res.err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return res.val, res.err
	case <-time.After(timeout):
		return "", &TimeoutError{"timeout while trying to get secret from keyring"}
	}
}

// Delete removes a secret from the keyring for the given service and user.
// Deleting an entry that does not exist is a no-op.
func Delete(service, user string) error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		err := keyring.Delete(service, user)
		if errors.Is(err, keyring.ErrNotFound) {
			err = nil
		}
		ch <- err
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return &TimeoutError{"timeout while trying to delete secret from keyring"}
	}
}

// MockInit replaces the keyring backend with an in-memory store for tests.
func MockInit() {
	keyring.MockInit()
}
