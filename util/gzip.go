// Package util collects two small helpers: transparent gzip decompression
// (used by structload to open PDB, DSSP and SEC inputs) and fuzzy label
// grouping.
package util

import (
	"bufio"
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const gzipMagic0, gzipMagic1 = 0x1f, 0x8b

// OpenMaybeGzip opens path (local or any scheme file.Open supports) and
// transparently wraps it in a gzip reader if its first two bytes are the
// gzip magic number, regardless of file extension. The returned closer
// closes both the gzip reader (if any) and the underlying file.
func OpenMaybeGzip(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	br := bufio.NewReader(f.Reader(ctx))
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close(ctx)
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(peek) == 2 && peek[0] == gzipMagic0 && peek[1] == gzipMagic1 {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close(ctx)
			return nil, errors.Wrapf(err, "opening gzip stream in %s", path)
		}
		return &gzipFileCloser{ctx: ctx, gz: gz, f: f}, nil
	}
	return &bufferedFileCloser{ctx: ctx, r: br, f: f}, nil
}

type gzipFileCloser struct {
	ctx context.Context
	gz  *gzip.Reader
	f   file.File
}

func (c *gzipFileCloser) Read(p []byte) (int, error) { return c.gz.Read(p) }
func (c *gzipFileCloser) Close() error {
	gzErr := c.gz.Close()
	fErr := c.f.Close(c.ctx)
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

type bufferedFileCloser struct {
	ctx context.Context
	r   *bufio.Reader
	f   file.File
}

func (c *bufferedFileCloser) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *bufferedFileCloser) Close() error                { return c.f.Close(c.ctx) }
