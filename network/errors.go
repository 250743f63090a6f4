package network

import (
	"errors"
	"fmt"

	"msgsync/models"
)

// Outcome classifies the result of one remote call.
type Outcome string

const (
	// OutcomeOK means the call succeeded.
	OutcomeOK Outcome = "ok"
	// OutcomeDomainError means the store answered with an {error, message} body.
	OutcomeDomainError Outcome = "domain_error"
	// OutcomeTransportError means the call failed below the API contract.
	OutcomeTransportError Outcome = "transport_error"
)

// DomainError is a failure reported by the remote store itself.
type DomainError struct {
	Op      string
	Payload models.APIError
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: remote error [%s]: %s", e.Op, e.Payload.Error, e.Payload.Message)
}

// TransportError is a network failure or an unparseable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Classify maps an error returned by Client into an Outcome.
//
// Errors that are neither DomainError nor TransportError count as
// transport failures.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return OutcomeDomainError
	}
	return OutcomeTransportError
}

// Payload returns the user-facing error payload for err.
//
// Domain errors yield the store's own payload. Anything else is wrapped as
// {"Error", err.Error()}.
func Payload(err error) models.APIError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Payload
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.Err != nil {
		return models.APIError{Error: "Error", Message: transportErr.Err.Error()}
	}
	if err == nil {
		return models.APIError{}
	}
	return models.APIError{Error: "Error", Message: err.Error()}
}
