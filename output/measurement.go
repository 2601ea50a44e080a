package output

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/mailru/easyjson/jwriter"
)

// MeasurementFormatter renders per-topic scores, as produced by eval.Evaluate. Topics are sorted and measures keep
// the order of names.
type MeasurementFormatter func(scores map[string]map[string]float64, names []string) (string, error)

func sortedTopics(scores map[string]map[string]float64) []string {
	topics := make([]string, 0, len(scores))
	for topic := range scores {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// JsonMeasurementFormatter outputs results in a JSON format.
func JsonMeasurementFormatter(scores map[string]map[string]float64, names []string) (string, error) {
	w := jwriter.Writer{}
	w.RawByte('{')
	for i, topic := range sortedTopics(scores) {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(topic)
		w.RawString(":{")
		for j, name := range names {
			if j > 0 {
				w.RawByte(',')
			}
			w.String(name)
			w.RawByte(':')
			w.RawString(formatFloat(scores[topic][name]))
		}
		w.RawByte('}')
	}
	w.RawByte('}')
	return indent(&w)
}

// CsvMeasurementFormatter outputs results in CSV format.
func CsvMeasurementFormatter(scores map[string]map[string]float64, names []string) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	h := []string{"Topic"}
	h = append(h, names...)
	if err := w.Write(h); err != nil {
		return "", err
	}
	for _, topic := range sortedTopics(scores) {
		record := make([]string, len(names)+1)
		record[0] = topic
		for i, name := range names {
			record[i+1] = strconv.FormatFloat(scores[topic][name], 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
