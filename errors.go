package suitejson

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrContract is matched by every ContractError.
	ErrContract = errors.New("suitejson: node contract violation")

	// ErrConfigNotFound is returned when no .suitejson.yaml is found.
	ErrConfigNotFound = errors.New("suitejson: no .suitejson.yaml found")

	// ErrAlreadyReported is returned when a Reporter receives a second
	// run-completion notification.
	ErrAlreadyReported = errors.New("suitejson: run already reported")
)

// ContractError reports a host node whose shape does not match what the
// projector requires, e.g. an accessor field that is missing or not callable.
type ContractError struct {
	Field string // allow-listed field name, e.g. "timeout"
	Kind  string // what was found instead, e.g. "undefined" or "string"
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("suitejson: %s is not a function (got %s)", e.Field, e.Kind)
}

// Is makes errors.Is(err, ErrContract) hold for every ContractError.
func (e *ContractError) Is(target error) bool {
	return target == ErrContract
}
