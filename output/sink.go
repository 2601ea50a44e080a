package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hscells/q2d/eval"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EvaluationWriter reports the summary of an evaluated split.
type EvaluationWriter interface {
	WriteEvaluation(split string, s eval.Summary) error
}

// ConsoleWriter prints evaluation summaries for a reader.
type ConsoleWriter struct {
	w         io.Writer
	Formatter EvaluationFormatter
}

// Console prints summaries to w.
func Console(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{w: w, Formatter: JsonEvaluationFormatter}
}

// WriteEvaluation prints a header naming the split followed by the formatted summary.
func (c *ConsoleWriter) WriteEvaluation(split string, s eval.Summary) error {
	v, err := c.Formatter(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.w, "Evaluation results for %s split:\n%s\n", split, v)
	return err
}

// ArtifactWriter saves evaluation summaries as files named after their split.
type ArtifactWriter struct {
	Dir       string
	Formatter EvaluationFormatter
}

// Artifact saves summaries into dir.
func Artifact(dir string) *ArtifactWriter {
	return &ArtifactWriter{Dir: dir, Formatter: JsonEvaluationFormatter}
}

// Path is the file the summary of split is saved to.
func (a *ArtifactWriter) Path(split string) string {
	return filepath.Join(a.Dir, fmt.Sprintf("evaluation_results_%s.json", split))
}

// WriteEvaluation replaces the artifact of split with the formatted summary.
func (a *ArtifactWriter) WriteEvaluation(split string, s eval.Summary) error {
	v, err := a.Formatter(s)
	if err != nil {
		return err
	}
	path := a.Path(split)
	if err := WriteFileAtomic(path, []byte(v)); err != nil {
		return err
	}
	logrus.WithField("path", path).Info("saved evaluation results")
	return nil
}

// WriteFileAtomic writes data to a uniquely named file next to path and renames it into place, so that path is
// either left untouched or holds all of data.
func WriteFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
