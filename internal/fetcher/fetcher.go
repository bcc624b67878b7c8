// Package fetcher retrieves import files from local paths, HTTP(S) URLs, and
// FTP servers.
package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Options configures the fetchers.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.UserAgent == "" {
		o.UserAgent = "leadimport-cli/1.0"
	}
	return o
}

// Fetcher resolves an import source to its raw bytes.
type Fetcher struct {
	opts Options
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	opts = opts.withDefaults()
	return &Fetcher{
		opts: opts,
		http: NewHTTPFetcher(opts),
		ftp:  NewFTPFetcher(opts),
	}
}

// Fetch retrieves the source, which may be a local file path, an http(s) URL,
// or an ftp URL.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	switch scheme(source) {
	case "http", "https":
		return f.http.Fetch(ctx, source)
	case "ftp":
		return f.ftp.Fetch(ctx, source)
	default:
		return readLocal(source)
	}
}

// Name returns the base file name of the source, used to label import runs.
func Name(source string) string {
	switch scheme(source) {
	case "http", "https", "ftp":
		u, err := url.Parse(source)
		if err != nil || u.Path == "" || u.Path == "/" {
			return source
		}
		return path.Base(u.Path)
	default:
		return filepath.Base(source)
	}
}

func scheme(source string) string {
	i := strings.Index(source, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(source[:i])
}

func readLocal(p string) ([]byte, error) {
	p = strings.TrimPrefix(p, "file://")
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", p)
	}
	return data, nil
}
