package macro

import "fmt"

// EvaluationError reports a macro that could not be evaluated: bad syntax, missing
// arguments, or a failing macro or function.
type EvaluationError struct {
	Macro  string
	Reason string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot evaluate %s: %s: %v", e.Macro, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot evaluate %s: %s", e.Macro, e.Reason)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
