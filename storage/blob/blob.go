// Copyright 2023 venues-ranker Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/juju/errors"
)

// Store is an object store holding datasets and model artifacts.
type Store interface {
	// Exists reports whether the named object exists.
	Exists(ctx context.Context, name string) (bool, error)
	// Download fetches the named object into localPath. A stale file at
	// localPath is removed before the fetch.
	Download(ctx context.Context, name, localPath string) error
	// Upload stores the file at localPath as the named object.
	Upload(ctx context.Context, localPath, name string) error
}

// POSIX is a Store backed by a local directory.
type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

func (p *POSIX) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(path.Join(p.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Trace(err)
	}
	return true, nil
}

func (p *POSIX) Download(_ context.Context, name, localPath string) error {
	if err := os.RemoveAll(localPath); err != nil {
		return errors.Trace(err)
	}
	if err := os.MkdirAll(path.Dir(localPath), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	src, err := os.Open(path.Join(p.dir, name))
	if err != nil {
		return errors.Trace(err)
	}
	defer src.Close()
	dst, err := os.Create(localPath)
	if err != nil {
		return errors.Trace(err)
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return errors.Trace(err)
}

func (p *POSIX) Upload(_ context.Context, localPath, name string) error {
	fullPath := path.Join(p.dir, name)
	if err := os.MkdirAll(path.Dir(fullPath), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Trace(err)
	}
	defer src.Close()
	dst, err := os.Create(fullPath)
	if err != nil {
		return errors.Trace(err)
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return errors.Trace(err)
}
