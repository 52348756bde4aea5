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

package dataset

import (
	"github.com/venues-ranker/venues-ranker/base"
)

// Fold is one train/test partition of distinct session identifiers. Sessions,
// not rows, are the split unit so that no session straddles the boundary.
type Fold struct {
	Train map[int64]struct{}
	Test  map[int64]struct{}
}

// KFoldSessions partitions distinct session identifiers into k folds with a
// fixed seed: identifiers are shuffled once and cut into k contiguous chunks,
// the i-th chunk becomes the test set of the i-th fold and the remainder the
// train set.
func KFoldSessions(sessions []int64, k int, seed int64) []Fold {
	shuffled := make([]int64, len(sessions))
	copy(shuffled, sessions)
	rng := base.NewRandomGenerator(seed)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	folds := make([]Fold, k)
	chunkSize, remainder := len(shuffled)/k, len(shuffled)%k
	begin := 0
	for i := 0; i < k; i++ {
		end := begin + chunkSize
		if i < remainder {
			end++
		}
		folds[i] = Fold{
			Train: make(map[int64]struct{}, len(shuffled)-(end-begin)),
			Test:  make(map[int64]struct{}, end-begin),
		}
		for j, session := range shuffled {
			if j >= begin && j < end {
				folds[i].Test[session] = struct{}{}
			} else {
				folds[i].Train[session] = struct{}{}
			}
		}
		begin = end
	}
	return folds
}
