package session

import "errors"

var (
	ErrNoLevel         = errors.New("no such level")
	ErrNoTask          = errors.New("no such task")
	ErrLevelIncomplete = errors.New("level not complete")
	ErrLockedOut       = errors.New("locked out")
	ErrNoTarget        = errors.New("nothing selected")
	ErrEmptyClipboard  = errors.New("clipboard is empty")
	ErrProtected       = errors.New("protected")
	ErrHoneypot        = errors.New("honeypot triggered")
	ErrPasteIntoSelf   = errors.New("cannot paste a directory into itself")
	ErrNoPending       = errors.New("nothing pending")
)
