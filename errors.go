package q2d

import "fmt"

// Stages a run can fail in.
const (
	StageDatasetLoad   = "dataset load"
	StageJudgmentLoad  = "judgment load"
	StageBatchSearch   = "batch search"
	StageEvaluation    = "evaluation"
	StageArtifactWrite = "artifact write"
)

// StageError reports the stage of the pipeline an error happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors find the underlying error.
func (e *StageError) Cause() error {
	return e.Err
}
