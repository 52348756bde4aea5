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

package rank

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/juju/errors"
	"github.com/venues-ranker/venues-ranker/base/encoding"
	"github.com/venues-ranker/venues-ranker/dataset"
	"github.com/venues-ranker/venues-ranker/model"
	"go.uber.org/zap"
)

const headerGBRT = "GBRT"

// Score is the quality of a fitted ranker on its evaluation fold.
type Score struct {
	LearnMAP      float32
	ValidationMAP float32
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("MAP@10", score.ValidationMAP),
		zap.Float32("learn_MAP@10", score.LearnMAP),
	}
}

// BetterThan reports whether score beats s on validation MAP@10. The
// comparison is strict, so iterating fold results in order keeps the first
// encountered maximum on ties.
func (score Score) BetterThan(s Score) bool {
	return score.ValidationMAP > s.ValidationMAP
}

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 100,
	}
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// Ranker is a learning-to-rank model.
type Ranker interface {
	model.Model
	// Fit the ranker with early stopping against an evaluation pool.
	Fit(ctx context.Context, trainSet, evalSet *dataset.Pool, config *FitConfig) Score
	// Predict returns one relevance score per feature row, in row order.
	Predict(rows [][]float32) []float32
	// Invalid reports whether the model has never been fitted.
	Invalid() bool
	// FeatureImportance returns normalized per-feature split gains.
	FeatureImportance() map[string]float32
	// Marshal model into byte stream.
	Marshal(w io.Writer) error
	// Unmarshal model from byte stream.
	Unmarshal(r io.Reader) error
}

// Marshal the GBRT ranker into a byte stream.
func (gbrt *GBRT) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, gbrt.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, gbrt.LearningRate); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, gbrt.FeatureNames); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, gbrt.FeatureGain); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteGob(w, gbrt.Trees))
}

// Unmarshal the GBRT ranker from a byte stream.
func (gbrt *GBRT) Unmarshal(r io.Reader) error {
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	gbrt.SetParams(params)
	if err := encoding.ReadGob(r, &gbrt.LearningRate); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, &gbrt.FeatureNames); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, &gbrt.FeatureGain); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.ReadGob(r, &gbrt.Trees))
}

// MarshalModel writes a ranker with a model type header.
func MarshalModel(w io.Writer, m Ranker) error {
	switch m.(type) {
	case *GBRT:
		if err := encoding.WriteString(w, headerGBRT); err != nil {
			return errors.Trace(err)
		}
	default:
		return fmt.Errorf("unknown model: %v", reflect.TypeOf(m))
	}
	return m.Marshal(w)
}

// UnmarshalModel reads a ranker written by MarshalModel.
func UnmarshalModel(r io.Reader) (Ranker, error) {
	header, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch header {
	case headerGBRT:
		var gbrt GBRT
		if err := gbrt.Unmarshal(r); err != nil {
			return nil, errors.Trace(err)
		}
		return &gbrt, nil
	}
	return nil, fmt.Errorf("unknown model: %v", header)
}

// Load reads a ranker from the artifact file at path. A missing or corrupt
// artifact is an error: the caller must not serve without a model.
func Load(path string) (Ranker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open model artifact %s", path)
	}
	defer f.Close()
	m, err := UnmarshalModel(f)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to load model artifact %s", path)
	}
	return m, nil
}

// Save writes a ranker to the artifact file at path.
func Save(m Ranker, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return errors.Trace(MarshalModel(f, m))
}
