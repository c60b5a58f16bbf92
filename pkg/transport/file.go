// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/pkg/platform"
	"github.com/kilnbuild/kiln/pkg/repo"
)

// ErrReservedName is returned when an upload path contains a name the host
// file system cannot store.
var ErrReservedName = errors.New("reserved file name")

// File is a repo.Transport for file:// repositories.
type File struct {
	observer Observer
	goos     string
}

// NewFile creates a File transport reporting to o (may be nil).
func NewFile(o Observer) *File {
	if o == nil {
		o = nopObserver{}
	}
	return &File{observer: o, goos: runtime.GOOS}
}

// Get implements repo.Transport.
func (f *File) Get(ctx context.Context, req repo.Request) ([]byte, error) {
	start := time.Now()
	path, err := filePath(req.URL)
	if err == nil {
		err = ctx.Err()
	}
	var data []byte
	if err == nil {
		data, err = os.ReadFile(path)
		err = mapFileError(err)
	}
	f.observer.ObserveOperation("file", OpGet, outcomeOf(err), len(data), time.Since(start))
	return data, err
}

// Head implements repo.Transport.
func (f *File) Head(ctx context.Context, req repo.Request) error {
	start := time.Now()
	path, err := filePath(req.URL)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		var info fs.FileInfo
		info, err = os.Stat(path)
		if err == nil && info.IsDir() {
			err = fmt.Errorf("%s is a directory: %w", path, repo.ErrNotFound)
		}
		err = mapFileError(err)
	}
	f.observer.ObserveOperation("file", OpHead, outcomeOf(err), 0, time.Since(start))
	return err
}

// Put implements repo.Transport. The file is written to a temporary sibling
// and renamed into place so readers never observe partial content.
func (f *File) Put(ctx context.Context, req repo.Request, body []byte) error {
	start := time.Now()
	err := f.put(ctx, req, body)
	f.observer.ObserveOperation("file", OpPut, outcomeOf(err), len(body), time.Since(start))
	return err
}

func (f *File) put(ctx context.Context, req repo.Request, body []byte) error {
	path, err := filePath(req.URL)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkStorable(path, f.goos); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kiln-upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("moving %s into place: %w", path, err)
	}
	return nil
}

// List implements repo.Lister.
func (f *File) List(ctx context.Context, req repo.Request) ([]string, error) {
	start := time.Now()
	path, err := filePath(req.URL)
	if err == nil {
		err = ctx.Err()
	}
	var out []string
	if err == nil {
		var entries []os.DirEntry
		entries, err = os.ReadDir(path)
		err = mapFileError(err)
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			out = append(out, name)
		}
		slices.Sort(out)
	}
	f.observer.ObserveOperation("file", OpList, outcomeOf(err), 0, time.Since(start))
	return out, err
}

func filePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URL: %s", rawURL)
	}
	return filepath.FromSlash(u.Path), nil
}

// checkStorable rejects paths with a Windows device name segment when
// running on Windows, where creating them would address the device.
func checkStorable(path, goos string) error {
	if goos != platform.Windows {
		return nil
	}
	for _, seg := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if platform.IsWindowsReservedName(seg) {
			return fmt.Errorf("%w: %q in %s", ErrReservedName, seg, path)
		}
	}
	return nil
}

func mapFileError(err error) error {
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", repo.ErrNotFound, err)
	}
	return err
}
