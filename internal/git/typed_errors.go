package git

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Base typed git errors enabling structured classification without string parsing upstream.

// NoTagsError indicates the repository carries no semver tags at all.
type NoTagsError struct{ Path string }

func (e *NoTagsError) Error() string { return fmt.Sprintf("no version tags found in %s", e.Path) }

type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type PushRejectedError struct{ Err error }

func (e *PushRejectedError) Error() string { return fmt.Sprintf("push rejected: %v", e.Err) }
func (e *PushRejectedError) Unwrap() error { return e.Err }

// classifyPushError wraps push failures into typed variants when possible.
func classifyPushError(err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "auth"):
		return &AuthError{Op: "push", Err: err}
	case strings.Contains(l, "non-fast-forward") || strings.Contains(l, "rejected"):
		return &PushRejectedError{Err: err}
	default:
		return err
	}
}

// isPermanentPushError reports whether retrying the push cannot help.
func isPermanentPushError(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	var rejected *PushRejectedError
	if errors.As(err, &rejected) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return false // timeouts and friends are worth retrying
	}
	l := strings.ToLower(err.Error())
	if strings.Contains(l, "timeout") || strings.Contains(l, "temporar") || strings.Contains(l, "connection") {
		return false
	}
	return true
}
