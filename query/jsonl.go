package query

import (
	"bufio"
	"context"
	"strings"

	"github.com/hscells/q2d/fetch"
	"github.com/mailru/easyjson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// JSONLQuerySource loads splits stored as one JSON record per line, under a base directory or URL.
type JSONLQuerySource struct {
	fetcher fetch.Opener
	base    string
}

// NewJSONLQuerySource creates a source reading split files relative to base.
func NewJSONLQuerySource(fetcher fetch.Opener, base string) JSONLQuerySource {
	return JSONLQuerySource{fetcher: fetcher, base: base}
}

// Location is where the file for a split is read from.
func (s JSONLQuerySource) Location(split string) (string, error) {
	file, ok := SplitFile(split)
	if !ok {
		return "", errors.Errorf("unknown split %q, expected one of %s", split, strings.Join(Splits(), ", "))
	}
	return strings.TrimSuffix(s.base, "/") + "/" + file, nil
}

// Load reads every record of a split in file order.
func (s JSONLQuerySource) Load(ctx context.Context, split string) ([]Record, error) {
	location, err := s.Location(split)
	if err != nil {
		return nil, err
	}

	r, err := s.fetcher.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []Record
	sc := bufio.NewScanner(r)
	// Pseudo-documents are short passages, but allow for long lines anyway.
	sc.Buffer(make([]byte, 64*1024), 10*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		var rec Record
		if err := easyjson.Unmarshal(raw, &rec); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", location, line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", location)
	}

	logrus.WithFields(logrus.Fields{
		"split":   split,
		"queries": len(records),
	}).Info("loaded queries")
	return records, nil
}
