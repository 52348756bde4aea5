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

package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	var count atomic.Int64
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		count.Add(1)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), count.Load())
}

func TestParallel_Sequential(t *testing.T) {
	order := make([]int, 0, 10)
	err := Parallel(context.Background(), 10, 1, func(workerId, jobId int) error {
		order = append(order, jobId)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestParallel_Error(t *testing.T) {
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 50 {
			return errors.New("boom")
		}
		return nil
	})
	assert.ErrorContains(t, err, "boom")
}

func TestParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 100, 4, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
