package pipeline

import "fmt"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageOpen   Stage = "open"
	StageLayout Stage = "layout"
	StageRead   Stage = "read"
	StageIndex  Stage = "index"
	StageExport Stage = "export"
	StageStack  Stage = "stack"
	StageExtras Stage = "extras"
	StageCancel Stage = "cancel"
)

// StageError reports the failing stage and the file it was working on.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, path string, err error) error {
	return &StageError{Stage: stage, Path: path, Err: err}
}
