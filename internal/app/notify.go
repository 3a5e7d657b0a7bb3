// Package app wires the storefront flows: it reacts to user actions by
// calling the API, updating the session, notifying the user and navigating.
package app

import (
	"fmt"
	"io"
	"sync"
)

// Level is the severity of a notice.
type Level int

// Notice levels.
const (
	LevelInfo Level = iota
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is a user-facing message, the terminal counterpart of an alert.
type Notice struct {
	Level   Level
	Message string
}

// Notifier delivers notices to the user.
type Notifier interface {
	Notify(Notice)
}

// Messages shown to the user.
const (
	MsgLoginRequired     = "Login required."
	MsgLoginSuccess      = "Logged in!"
	MsgLoginFailed       = "Check your login id or password."
	MsgEnterCredentials  = "Enter your login id and password."
	MsgLoggedOut         = "You have been logged out."
	MsgOrderPlaced       = "Your order has been placed."
	MsgSessionExpired    = "Your session has expired. Please log in again."
	MsgOrderFailed       = "Order failed."
	MsgInvalidCount      = "Order count must be at least 1."
	MsgFillEveryField    = "Please fill in every field."
	MsgPasswordMismatch  = "Passwords do not match."
	MsgSignupSuccess     = "Signed up! Taking you to the login page."
	MsgSignupFailed      = "Sign-up failed. Please check your details."
	MsgSignupError       = "Something went wrong while signing up."
	MsgNetworkError      = "Could not reach the shop. Please try again."
	MsgLoadFailed        = "Could not load the page."
	MsgSessionSaveFailed = "Could not save your session."
	MsgSessionChanged    = "Your session changed in another window."
)

// WriterNotifier prints notices as lines on a writer.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify writes the notice, prefixed with "!" for errors and "*" otherwise.
func (n *WriterNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	mark := "*"
	if notice.Level == LevelError {
		mark = "!"
	}
	fmt.Fprintf(n.w, "%s %s\n", mark, notice.Message)
}
