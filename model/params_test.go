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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	params := Params{
		NTrees:      100,
		Lr:          0.1,
		RandomState: 21,
	}
	assert.Equal(t, 100, params.GetInt(NTrees, 0))
	assert.Equal(t, float32(0.1), params.GetFloat32(Lr, 0))
	assert.Equal(t, int64(21), params.GetInt64(RandomState, 0))
	// fallbacks
	assert.Equal(t, 6, params.GetInt(MaxDepth, 6))
	assert.Equal(t, float32(0.1), Params{Lr: "oops"}.GetFloat32(Lr, 0.1))
}

func TestParams_Overwrite(t *testing.T) {
	merged := Params{NTrees: 100, Lr: 0.1}.Overwrite(Params{NTrees: 200})
	assert.Equal(t, 200, merged.GetInt(NTrees, 0))
	assert.Equal(t, float32(0.1), merged.GetFloat32(Lr, 0))
}

func TestBaseModel(t *testing.T) {
	var m BaseModel
	m.SetParams(Params{RandomState: 21})
	a := m.GetRandomGenerator().Int63()
	m.SetParams(Params{RandomState: 21})
	b := m.GetRandomGenerator().Int63()
	assert.Equal(t, a, b)
	assert.Equal(t, Params{RandomState: 21}, m.GetParams())
}
