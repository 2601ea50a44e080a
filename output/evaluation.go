// Package output provides different formats of output for experiments.
package output

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hscells/q2d/eval"
	"github.com/mailru/easyjson/jwriter"
)

// Indent is the indentation of formatted JSON.
const Indent = "    "

// EvaluationFormatter renders the summary of an evaluation.
type EvaluationFormatter func(eval.Summary) (string, error)

// JsonEvaluationFormatter outputs a summary as an indented JSON object whose keys keep the order of the summary.
func JsonEvaluationFormatter(s eval.Summary) (string, error) {
	w := jwriter.Writer{}
	w.RawByte('{')
	for i, m := range s {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(m.Name)
		w.RawByte(':')
		w.RawString(formatFloat(m.Value))
	}
	w.RawByte('}')
	return indent(&w)
}

func indent(w *jwriter.Writer) (string, error) {
	b, err := w.BuildBytes()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", Indent); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatFloat prints v the shortest way that reads back to the same value, always marking it as a float, so 1 is
// printed as 1.0 and 0.00001 as 1e-05.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
