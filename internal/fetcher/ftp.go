package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPFetcher downloads import files over FTP. Credentials may be embedded in
// the URL; anonymous login is used otherwise.
type FTPFetcher struct {
	opts Options
}

// NewFTPFetcher creates an FTPFetcher with the given options.
func NewFTPFetcher(opts Options) *FTPFetcher {
	return &FTPFetcher{opts: opts.withDefaults()}
}

// parseFTPURL extracts host (with port), path, and credentials from an FTP URL.
func parseFTPURL(rawURL string) (host, path, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", "", "", eris.New("fetcher: empty path in ftp url")
	}

	user, pass = "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	return host, path, user, pass, nil
}

// Fetch connects to the FTP server, retrieves the file, and returns its bytes.
func (f *FTPFetcher) Fetch(ctx context.Context, ftpURL string) ([]byte, error) {
	host, path, user, pass, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(user, pass); err != nil {
		return nil, eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read ftp response")
	}
	return data, nil
}
