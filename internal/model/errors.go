package model

import "errors"

var (
	ErrTerminalNotFound   = errors.New("terminal not found")
	ErrTerminalInactive   = errors.New("terminal is not active")
	ErrOverrideNotFound   = errors.New("override not found")
	ErrClosedDateExists   = errors.New("closed date already exists")
	ErrClosedDateNotFound = errors.New("closed date not found")
)
