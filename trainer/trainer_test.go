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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/model"
	"github.com/venues-ranker/venues-ranker/model/rank"
	"github.com/venues-ranker/venues-ranker/storage/blob"
)

// failUploadStore fails every upload, everything else is the wrapped store.
type failUploadStore struct {
	blob.Store
}

func (s failUploadStore) Upload(_ context.Context, _, name string) error {
	return errors.Errorf("upload %s refused", name)
}

func writeDatasets(t *testing.T, store blob.Store, cfg *config.Config) {
	// 12 sessions of 4 venues, the purchased venue has the highest rating
	var sessions strings.Builder
	sessions.WriteString("session_id,venue_id,position_in_list,purchased,is_new_user,is_from_order_again,is_recommended,has_seen_venue_in_this_session\n")
	for s := 0; s < 12; s++ {
		best := s % 4
		for v := 0; v < 4; v++ {
			purchased := "0"
			if v == best {
				purchased = "1"
			}
			fmt.Fprintf(&sessions, "%d,%d,%d,%s,%d,0,0,0\n", s, v+1, v, purchased, s%2)
		}
	}
	var venues strings.Builder
	venues.WriteString("venue_id,conversions_per_impression,price_range,rating,popularity,retention_rate\n")
	for v := 0; v < 4; v++ {
		fmt.Fprintf(&venues, "%d,0.1,%d,%d.5,0.5,0.3\n", v+1, v%3+1, v+1)
	}

	dir := t.TempDir()
	sessionsPath := filepath.Join(dir, "sessions.csv")
	venuesPath := filepath.Join(dir, "venues.csv")
	require.NoError(t, os.WriteFile(sessionsPath, []byte(sessions.String()), 0644))
	require.NoError(t, os.WriteFile(venuesPath, []byte(venues.String()), 0644))
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, sessionsPath, cfg.Train.SessionsKey))
	require.NoError(t, store.Upload(ctx, venuesPath, cfg.Train.VenuesKey))
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Train.NumFolds = 3
	cfg.Train.ScratchDir = t.TempDir()
	return cfg
}

// fastParams keep the fit quick
var fastParams = model.Params{
	model.NTrees:              10,
	model.MaxDepth:            3,
	model.EarlyStoppingRounds: 5,
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)
	store := blob.NewPOSIX(t.TempDir())
	writeDatasets(t, store, cfg)

	pipeline := NewPipeline(cfg, store)
	pipeline.Params = fastParams
	assert.Equal(t, StateInit, pipeline.State())
	require.NoError(t, pipeline.Run(context.Background()))
	assert.Equal(t, StatePersisted, pipeline.State())
	assert.Len(t, pipeline.Results(), cfg.Train.NumFolds)

	// the live artifact is published
	ctx := context.Background()
	exists, err := store.Exists(ctx, cfg.S3.Weights)
	assert.NoError(t, err)
	assert.True(t, exists)

	// the published model loads and scores
	local := filepath.Join(t.TempDir(), "ranker.cbm")
	require.NoError(t, store.Download(ctx, cfg.S3.Weights, local))
	loaded, err := rank.Load(local)
	assert.NoError(t, err)
	scores := loaded.Predict([][]float32{{0, 0, 0, 0.1, 1, 1.5, 0.5, 0.3}})
	assert.Len(t, scores, 1)

	// scratch space is cleaned up
	entries, err := os.ReadDir(cfg.Train.ScratchDir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipeline_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	store := blob.NewPOSIX(t.TempDir())

	pipeline := NewPipeline(cfg, store)
	err := pipeline.Run(context.Background())
	assert.True(t, errors.Is(err, errors.NotFound))
	assert.Equal(t, StateFailed, pipeline.State())
}

func TestPipeline_UploadFailure(t *testing.T) {
	cfg := testConfig(t)
	posix := blob.NewPOSIX(t.TempDir())
	writeDatasets(t, posix, cfg)

	pipeline := NewPipeline(cfg, failUploadStore{Store: posix})
	pipeline.Params = fastParams
	err := pipeline.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unpublished")
	assert.Equal(t, StateFailed, pipeline.State())

	// training succeeded before the upload failed
	assert.Len(t, pipeline.Results(), cfg.Train.NumFolds)

	// nothing is published and no local artifact leaks
	ctx := context.Background()
	exists, err := posix.Exists(ctx, cfg.S3.Weights)
	assert.NoError(t, err)
	assert.False(t, exists)
	entries, err := os.ReadDir(cfg.Train.ScratchDir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipeline_SelectsBestFold(t *testing.T) {
	cfg := testConfig(t)
	store := blob.NewPOSIX(t.TempDir())
	writeDatasets(t, store, cfg)

	pipeline := NewPipeline(cfg, store)
	pipeline.Params = fastParams
	require.NoError(t, pipeline.Run(context.Background()))
	best := pipeline.Results()[pipeline.best]
	for _, result := range pipeline.Results() {
		assert.False(t, result.Score.BetterThan(best.Score))
	}
}
