package mutation

import (
	"context"
	"errors"

	"github.com/tobsdb/tdbview/internal/record"
)

// Collaborator performs persistence on behalf of the view.
type Collaborator interface {
	// Apply carries out req. Any error is a failure whose message is shown
	// to the operator as is.
	Apply(ctx context.Context, req Request) (Ack, error)
	// Fetch returns the current data.
	Fetch(ctx context.Context) (*record.RecordSet, error)
}

// Ack is a successful Apply. RecordSet, when set, is fresh data that saves
// the view a Fetch.
type Ack struct {
	Message   string
	Data      any
	RecordSet *record.RecordSet
}

// Failure is a structured collaborator failure.
type Failure struct {
	Message string
	Status  int
}

func NewFailure(status int, msg string) *Failure { return &Failure{Message: msg, Status: status} }

func (f *Failure) Error() string { return f.Message }

// Result is the outcome of one submission as seen by the consumer.
type Result struct {
	Requests []Request
	OK       bool
	Message  string
	// Status is the collaborator's status code when it reported one.
	Status int
	Err    error
}

func Succeeded(reqs []Request, ack Ack) Result {
	msg := ack.Message
	if msg == "" && len(reqs) > 0 {
		msg = reqs[0].SuccessMessage()
	}
	return Result{Requests: reqs, OK: true, Message: msg}
}

// Failed builds the result for err without rewording it. Only an empty
// message is replaced with the request's default.
func Failed(reqs []Request, err error) Result {
	res := Result{Requests: reqs, Err: err}
	if err != nil {
		res.Message = err.Error()
	}
	var f *Failure
	if errors.As(err, &f) {
		res.Message = f.Message
		res.Status = f.Status
	}
	if res.Message == "" && len(reqs) > 0 {
		res.Message = reqs[0].DefaultFailureMessage()
	}
	return res
}
