// Package dataset downloads the climate SQLite dataset from an FTP server
// and installs it atomically once its schema checks out.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/climateapi/internal/metrics"
	"github.com/lox/climateapi/internal/store"
)

const (
	DefaultPath     = "/hawaii.sqlite"
	DefaultUser     = "anonymous"
	DefaultPassword = "anonymous"
	DefaultTimeout  = 30 * time.Second
)

type Fetcher struct {
	Host     string // host:port
	Path     string
	User     string
	Password string
	Timeout  time.Duration
	// MaxElapsed bounds the total time spent retrying a download.
	MaxElapsed time.Duration
	Logger     *slog.Logger

	retrieve func(ctx context.Context) (io.ReadCloser, error)
}

func NewFetcher(host string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Host:       host,
		Path:       DefaultPath,
		User:       DefaultUser,
		Password:   DefaultPassword,
		Timeout:    DefaultTimeout,
		MaxElapsed: 2 * time.Minute,
		Logger:     logger,
	}
}

// Fetch downloads the dataset to dest. The file is written next to dest,
// checked with store.Verify, and renamed into place, so a failed fetch
// leaves any existing dataset untouched. It returns the size written.
func (f *Fetcher) Fetch(ctx context.Context, dest string) (int64, error) {
	n, err := f.fetch(ctx, dest)
	if err != nil {
		metrics.DatasetFetches.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.DatasetFetches.WithLabelValues("ok").Inc()
	return n, nil
}

func (f *Fetcher) fetch(ctx context.Context, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	var n int64
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		n, err = f.download(ctx, tmpPath)
		if err != nil && f.Logger != nil {
			f.Logger.Warn("dataset download failed", "attempt", attempt, "error", err)
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.MaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return 0, err
	}

	if err := verify(ctx, tmpPath); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("install dataset: %w", err)
	}
	if f.Logger != nil {
		f.Logger.Info("dataset installed", "path", dest, "bytes", n, "attempts", attempt)
	}
	return n, nil
}

// download copies one retrieval into path, truncating earlier attempts.
func (f *Fetcher) download(ctx context.Context, path string) (int64, error) {
	retrieve := f.retrieve
	if retrieve == nil {
		retrieve = f.retrieveFTP
	}
	body, err := retrieve(ctx)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("open %s: %w", path, err))
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("copy dataset: %w", err)
	}
	if n == 0 {
		return 0, backoff.Permanent(errors.New("dataset is empty"))
	}
	return n, nil
}

func (f *Fetcher) retrieveFTP(ctx context.Context) (io.ReadCloser, error) {
	conn, err := ftp.Dial(f.Host, ftp.DialWithTimeout(f.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}

	if err := conn.Login(f.User, f.Password); err != nil {
		conn.Quit()
		return nil, backoff.Permanent(fmt.Errorf("ftp login: %w", err))
	}

	resp, err := conn.Retr(f.Path)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp retr %s: %w", f.Path, err)
	}
	return &ftpBody{Response: resp, conn: conn}, nil
}

// ftpBody closes the control connection along with the transfer.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Close() error {
	err := b.Response.Close()
	b.conn.Quit()
	return err
}

func verify(ctx context.Context, path string) error {
	st, err := store.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open downloaded dataset: %w", err)
	}
	defer st.Close()
	if err := st.Verify(ctx); err != nil {
		return fmt.Errorf("downloaded dataset: %w", err)
	}
	return nil
}
