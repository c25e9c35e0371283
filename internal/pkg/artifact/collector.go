// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package artifact

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arcentrix/runstream/internal/pkg/workspace"
)

var ErrCollectFailure = errors.New("failed to collect artifacts")

const (
	PlaceholderName = "README.txt"
	placeholderBody = "This run produced no screenshots, videos or traces.\n"
)

// Collector packs a run's media folders into a zip bundle.
type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

// BundlePath is where Collect writes the bundle for ws, next to its directory.
func BundlePath(ws *workspace.Workspace) string {
	return ws.Dir + ".zip"
}

// Collect zips every regular file under the media folders using paths
// relative to the workspace. When there is nothing to pack a placeholder
// entry is written so the bundle is never empty. entries counts media files only.
func (c *Collector) Collect(ctx context.Context, ws *workspace.Workspace) (bundlePath string, entries int, err error) {
	dst := BundlePath(ws)
	out, err := os.Create(dst)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCollectFailure, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrCollectFailure, cerr)
		}
		if err != nil {
			_ = os.Remove(dst)
			bundlePath = ""
		}
	}()

	zw := zip.NewWriter(out)
	for _, dir := range ws.MediaDirs() {
		n, werr := addTree(ctx, zw, ws.Dir, dir)
		entries += n
		if werr != nil {
			_ = zw.Close()
			return "", entries, fmt.Errorf("%w: %v", ErrCollectFailure, werr)
		}
	}
	if entries == 0 {
		w, werr := zw.Create(PlaceholderName)
		if werr == nil {
			_, werr = io.WriteString(w, placeholderBody)
		}
		if werr != nil {
			_ = zw.Close()
			return "", 0, fmt.Errorf("%w: %v", ErrCollectFailure, werr)
		}
	}
	if err := zw.Close(); err != nil {
		return "", entries, fmt.Errorf("%w: %v", ErrCollectFailure, err)
	}
	return dst, entries, nil
}

func addTree(ctx context.Context, zw *zip.Writer, base, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
