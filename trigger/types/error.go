package types

import (
	"fmt"
)

// TriggerStep names one step of an invocation. Every failure is attributed to exactly one step.
type TriggerStep string

const (
	TriggerStepDecodeEvent    TriggerStep = "decode-event"
	TriggerStepResetWorkspace TriggerStep = "reset-workspace"
	TriggerStepClone          TriggerStep = "clone"
	TriggerStepAddRemote      TriggerStep = "add-remote"
	TriggerStepWritePayload   TriggerStep = "write-payload"
	TriggerStepStage          TriggerStep = "stage"
	TriggerStepCommit         TriggerStep = "commit"
	TriggerStepPush           TriggerStep = "push"
)

// TriggerError provides structured error handling
type TriggerError struct {
	Step    TriggerStep
	Err     error
	Context map[string]interface{}
}

func (e *TriggerError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %v (context: %v)", e.Step, e.Err, e.Context)
	}
	return fmt.Sprintf("[%s] %v", e.Step, e.Err)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

func NewTriggerError(step TriggerStep, err error) *TriggerError {
	return &TriggerError{
		Step:    step,
		Err:     err,
		Context: map[string]interface{}{},
	}
}

func (e *TriggerError) WithContext(key string, value interface{}) *TriggerError {
	e.Context[key] = value
	return e
}
