package store

import "github.com/tobsdb/tdbview/internal/mutation"

type Error struct {
	msg    string
	status int
}

func NewError(status int, msg string) *Error {
	return &Error{msg: msg, status: status}
}

func (e Error) Error() string { return e.msg }
func (e Error) Status() int   { return e.status }

// Failure converts e into what a view shows the operator.
func (e *Error) Failure() *mutation.Failure {
	return mutation.NewFailure(e.status, e.msg)
}
