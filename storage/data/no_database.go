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

package data

import (
	"context"

	"github.com/juju/errors"
)

// NoDatabase is the Database placeholder when no database is configured.
type NoDatabase struct{}

var ErrNoDatabase = errors.NotAssignedf("database")

func (NoDatabase) Init() error {
	return ErrNoDatabase
}

func (NoDatabase) Close() error {
	return ErrNoDatabase
}

func (NoDatabase) Ping() error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertVenues(_ context.Context, _ []Venue) error {
	return ErrNoDatabase
}

func (NoDatabase) LookupVenues(_ context.Context, _ []int64) (map[int64]Venue, error) {
	return nil, ErrNoDatabase
}
