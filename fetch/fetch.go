// Package fetch opens the datasets and relevance assessments an evaluation depends on. Sources may either be local
// paths or http(s) URLs; remote sources can be cached on disk so that repeated runs do not download them again.
package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Opener opens a source for reading. The caller must close the reader.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// Fetcher opens local and remote resources.
type Fetcher struct {
	client   *http.Client
	cache    *diskv.Diskv
	progress io.Writer
}

// HTTPClient sets the client used for remote sources.
func HTTPClient(client *http.Client) func(*Fetcher) {
	return func(f *Fetcher) {
		f.client = client
	}
}

// CacheDir caches remote sources in dir. An empty dir disables caching.
func CacheDir(dir string) func(*Fetcher) {
	return func(f *Fetcher) {
		if len(dir) == 0 {
			f.cache = nil
			return
		}
		f.cache = NewCache(dir)
	}
}

// Progress sets where download progress is drawn. A nil writer hides it.
func Progress(w io.Writer) func(*Fetcher) {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// New creates a fetcher. By default it uses http.DefaultClient, draws progress to stderr and does not cache.
func New(options ...func(*Fetcher)) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		progress: os.Stderr,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// IsRemote reports whether source must be downloaded.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Open returns a reader over the contents of source. The caller must close it.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !IsRemote(source) {
		r, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", source)
		}
		return r, nil
	}

	key := cacheKey(source)
	if f.cache != nil && f.cache.Has(key) {
		b, err := f.cache.Read(key)
		if err == nil {
			logrus.WithField("source", source).Debug("using cached copy")
			return io.NopCloser(bytes.NewReader(b)), nil
		}
		logrus.WithError(err).WithField("source", source).Warn("could not read cached copy, downloading again")
	}

	b, err := f.download(ctx, source)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Write(key, b); err != nil {
			logrus.WithError(err).WithField("source", source).Warn("could not cache download")
		}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *Fetcher) download(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", source)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", source)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("fetching %s: unexpected status %s", source, resp.Status)
	}

	w := f.progress
	if w == nil {
		w = io.Discard
	}
	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetDescription(fmt.Sprintf("downloading %s", path.Base(u.Path))),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(f.progress != nil),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	var buff bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buff, bar), resp.Body); err != nil {
		return nil, errors.Wrapf(err, "reading %s", source)
	}
	_ = bar.Finish()

	logrus.WithFields(logrus.Fields{
		"source": source,
		"bytes":  buff.Len(),
	}).Debug("downloaded")
	return buff.Bytes(), nil
}

func cacheKey(source string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(source)))
}
