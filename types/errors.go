package types

import "errors"

// ErrInvalid is the category shared by every input error in the module.
// The engine exports it as edition.ErrInvalidConfiguration.
var ErrInvalid = errors.New("edition: invalid configuration")

// Invalid returns a sentinel error with message msg that matches
// ErrInvalid under errors.Is.
func Invalid(msg string) error {
	return &invalidError{msg: msg}
}

type invalidError struct{ msg string }

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Unwrap() error { return ErrInvalid }
