package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateStage    = errors.New("pipeline: duplicate stage name")
	ErrUnknownDependency = errors.New("pipeline: unknown dependency")
	ErrCyclicDependency  = errors.New("pipeline: dependency cycle")
	ErrEmptyName         = errors.New("pipeline: empty stage name")
)

// StageError reports which stage aborted a dispatch.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
