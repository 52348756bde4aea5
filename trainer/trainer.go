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

package trainer

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/venues-ranker/venues-ranker/base/log"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/dataset"
	"github.com/venues-ranker/venues-ranker/model"
	"github.com/venues-ranker/venues-ranker/model/rank"
	"github.com/venues-ranker/venues-ranker/storage/blob"
	"go.uber.org/zap"
)

// State of a training pipeline run.
type State string

const (
	StateInit               State = "INIT"
	StateDataChecked        State = "DATA_CHECKED"
	StateDataLoaded         State = "DATA_LOADED"
	StateMergedAndValidated State = "MERGED_AND_VALIDATED"
	StateCrossValidated     State = "CROSS_VALIDATED"
	StateModelSelected      State = "MODEL_SELECTED"
	StatePersisted          State = "PERSISTED"
	StateFailed             State = "FAILED"
)

// FoldResult holds the outcome of one cross-validation fold.
type FoldResult struct {
	Fold       int
	Score      rank.Score
	Importance map[string]float32
	Model      rank.Ranker
}

// Pipeline is the offline training pipeline. One Pipeline performs one run.
type Pipeline struct {
	Config *config.Config
	Store  blob.Store
	// Params overrides the ranker hyper-parameters, mostly for tests.
	Params model.Params
	Jobs   int

	state   State
	results []FoldResult
	best    int
}

// NewPipeline creates a training pipeline run.
func NewPipeline(cfg *config.Config, store blob.Store) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Store:  store,
		Jobs:   1,
		state:  StateInit,
		best:   -1,
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	return p.state
}

// Results returns the per-fold outcomes of a completed cross-validation.
func (p *Pipeline) Results() []FoldResult {
	return p.results
}

// Run executes the pipeline to completion. Any error leaves the pipeline in
// the FAILED state.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.run(ctx); err != nil {
		p.state = StateFailed
		log.Logger().Error("training pipeline failed",
			zap.String("state", string(p.state)), zap.Error(err))
		return errors.Trace(err)
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	cfg := p.Config.Train
	// fail fast when either dataset is absent, no partial run
	for _, key := range []string{cfg.SessionsKey, cfg.VenuesKey} {
		exists, err := p.Store.Exists(ctx, key)
		if err != nil {
			return errors.Trace(err)
		}
		if !exists {
			return errors.NotFoundf("dataset %s", key)
		}
	}
	p.state = StateDataChecked

	// download both datasets to scratch, clean up over success and failure
	scratch := filepath.Join(cfg.ScratchDir, uuid.New().String())
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Logger().Warn("failed to remove scratch dir",
				zap.String("path", scratch), zap.Error(err))
		}
	}()
	sessionsPath := filepath.Join(scratch, "sessions.csv")
	venuesPath := filepath.Join(scratch, "venues.csv")
	if err := p.Store.Download(ctx, cfg.SessionsKey, sessionsPath); err != nil {
		return errors.Annotatef(err, "failed to download %s", cfg.SessionsKey)
	}
	if err := p.Store.Download(ctx, cfg.VenuesKey, venuesPath); err != nil {
		return errors.Annotatef(err, "failed to download %s", cfg.VenuesKey)
	}
	sessions, err := dataset.LoadSessions(sessionsPath)
	if err != nil {
		return errors.Trace(err)
	}
	venues, err := dataset.LoadVenues(venuesPath)
	if err != nil {
		return errors.Trace(err)
	}
	p.state = StateDataLoaded
	log.Logger().Info("datasets loaded",
		zap.Int("session_rows", len(sessions.Records)),
		zap.Int("venue_rows", len(venues.Venues)))

	merged, err := dataset.Merge(sessions, venues)
	if err != nil {
		return errors.Trace(err)
	}
	pool := merged.Prepare()
	p.state = StateMergedAndValidated

	if err = p.crossValidate(ctx, pool); err != nil {
		return errors.Trace(err)
	}
	p.state = StateCrossValidated

	p.selectModel()
	p.state = StateModelSelected
	p.report()

	if err = p.persist(ctx, scratch); err != nil {
		return errors.Trace(err)
	}
	p.state = StatePersisted
	return nil
}

func (p *Pipeline) crossValidate(ctx context.Context, pool *dataset.Pool) error {
	cfg := p.Config.Train
	folds := dataset.KFoldSessions(pool.DistinctSessions(), cfg.NumFolds, cfg.RandomState)
	p.results = make([]FoldResult, 0, len(folds))
	for i, fold := range folds {
		trainSet := pool.SubsetBySessions(fold.Train)
		evalSet := pool.SubsetBySessions(fold.Test)
		params := model.Params{model.RandomState: cfg.RandomState}
		params = params.Overwrite(p.Params)
		gbrt := rank.NewGBRT(params)
		score := gbrt.Fit(ctx, trainSet, evalSet, rank.NewFitConfig().SetJobs(p.Jobs))
		log.Logger().Info("fold complete",
			append([]zap.Field{zap.Int("fold", i)}, score.ZapFields()...)...)
		p.results = append(p.results, FoldResult{
			Fold:       i,
			Score:      score,
			Importance: gbrt.FeatureImportance(),
			Model:      gbrt,
		})
	}
	return nil
}

// selectModel picks the fold with the highest validation MAP@10. Ties keep
// the first encountered maximum.
func (p *Pipeline) selectModel() {
	p.best = 0
	for i, result := range p.results {
		if result.Score.BetterThan(p.results[p.best].Score) {
			p.best = i
		}
	}
	log.Logger().Info("model selected",
		append([]zap.Field{zap.Int("fold", p.best)}, p.results[p.best].Score.ZapFields()...)...)
}

// report logs the fold score distribution: mean, standard deviation and the
// two sigma band, an approximate 95% interval.
func (p *Pipeline) report() {
	var mean float32
	for _, result := range p.results {
		mean += result.Score.ValidationMAP
	}
	mean /= float32(len(p.results))
	var variance float32
	for _, result := range p.results {
		diff := result.Score.ValidationMAP - mean
		variance += diff * diff
	}
	variance /= float32(len(p.results))
	stddev := math32.Sqrt(variance)
	log.Logger().Info("cross validation report",
		zap.Float32("mean_MAP@10", mean),
		zap.Float32("stddev_MAP@10", stddev),
		zap.Float32("band_low", mean-2*stddev),
		zap.Float32("band_high", mean+2*stddev))
	for _, result := range p.results {
		log.Logger().Info("feature importance",
			zap.Int("fold", result.Fold),
			zap.Any("importance", result.Importance))
	}
}

// persist saves the selected model locally, uploads it and removes the local
// copy even when the upload fails. An upload failure fails the run: a trained
// but unpublished model is still a failure.
func (p *Pipeline) persist(ctx context.Context, scratch string) error {
	weights := p.Config.S3.Weights
	localPath := filepath.Join(scratch, weights)
	if err := rank.Save(p.results[p.best].Model, localPath); err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := os.Remove(localPath); err != nil {
			log.Logger().Warn("failed to remove local artifact",
				zap.String("path", localPath), zap.Error(err))
		}
	}()
	runId := uuid.New().String()
	versioned := path.Join("runs", runId, weights)
	if err := p.Store.Upload(ctx, localPath, versioned); err != nil {
		return errors.Annotatef(err, "model trained but unpublished: failed to upload %s", versioned)
	}
	if err := p.Store.Upload(ctx, localPath, weights); err != nil {
		return errors.Annotatef(err, "model trained but unpublished: failed to upload %s", weights)
	}
	log.Logger().Info("model persisted",
		zap.String("weights", weights),
		zap.String("versioned", versioned))
	return nil
}
