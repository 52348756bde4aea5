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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/suite"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/feature"
	"github.com/venues-ranker/venues-ranker/storage/data"
)

// mockScorer scores each row by its rating feature.
type mockScorer struct {
	invalid bool
}

func (s mockScorer) Predict(rows [][]float32) []float32 {
	scores := make([]float32, len(rows))
	for i, row := range rows {
		scores[i] = row[5]
	}
	return scores
}

func (s mockScorer) Invalid() bool {
	return s.invalid
}

type ServerTestSuite struct {
	suite.Suite
	RestServer
	handler *restful.Container
}

func (suite *ServerTestSuite) SetupSuite() {
	var err error
	suite.Config = config.GetDefaultConfig()
	suite.DataClient, err = data.Open(fmt.Sprintf("sqlite://%s/venues.db", suite.T().TempDir()))
	suite.NoError(err)
	suite.NoError(suite.DataClient.Init())
	suite.NoError(suite.DataClient.BatchInsertVenues(context.Background(), []data.Venue{
		{VenueId: 1, ConversionsPerImpression: 0.2, PriceRange: 2, Rating: 0.3, Popularity: 0.7, RetentionRate: 0.3},
		{VenueId: 2, ConversionsPerImpression: 0.1, PriceRange: 1, Rating: 0.9, Popularity: 0.5, RetentionRate: 0.4},
		{VenueId: 3, ConversionsPerImpression: 0.3, PriceRange: 3, Rating: 0.9, Popularity: 0.6, RetentionRate: 0.5},
	}))
	suite.Scorer = mockScorer{}

	suite.WebService = new(restful.WebService)
	suite.CreateWebService()
	suite.handler = restful.NewContainer()
	suite.handler.Add(suite.WebService)
}

func (suite *ServerTestSuite) TearDownSuite() {
	suite.NoError(suite.DataClient.Close())
}

func (suite *ServerTestSuite) SetupTest() {
	suite.Scorer = mockScorer{}
}

func (suite *ServerTestSuite) marshal(v interface{}) string {
	s, err := json.Marshal(v)
	suite.NoError(err)
	return string(s)
}

func (suite *ServerTestSuite) TestPing() {
	apitest.New().
		Handler(suite.handler).
		Get("/ping").
		Expect(suite.T()).
		Status(http.StatusOK).
		Body(`{"ping": "pong"}`).
		End()
}

func (suite *ServerTestSuite) TestPredict() {
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body(suite.marshal(PredictRequest{
			IsNewUser: true,
			Venues: []feature.Item{
				{VenueId: 1},
				{VenueId: 2, IsRecommended: true},
			},
		})).
		Expect(suite.T()).
		Status(http.StatusOK).
		Body(suite.marshal(PredictResponse{VenuesAndScores: []VenueScore{
			{VenueId: 2, Score: 0.9},
			{VenueId: 1, Score: 0.3},
		}})).
		End()
}

func (suite *ServerTestSuite) TestPredictStableTies() {
	// venues 2 and 3 score equally, input order is preserved
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body(suite.marshal(PredictRequest{
			Venues: []feature.Item{
				{VenueId: 3},
				{VenueId: 1},
				{VenueId: 2},
			},
		})).
		Expect(suite.T()).
		Status(http.StatusOK).
		Body(suite.marshal(PredictResponse{VenuesAndScores: []VenueScore{
			{VenueId: 3, Score: 0.9},
			{VenueId: 2, Score: 0.9},
			{VenueId: 1, Score: 0.3},
		}})).
		End()
}

func (suite *ServerTestSuite) TestPredictEmpty() {
	// no model invocation happens, so an unloaded model is fine
	suite.Scorer = mockScorer{invalid: true}
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body(suite.marshal(PredictRequest{IsNewUser: true})).
		Expect(suite.T()).
		Status(http.StatusOK).
		Body(suite.marshal(PredictResponse{VenuesAndScores: []VenueScore{}})).
		End()
}

func (suite *ServerTestSuite) TestPredictUnknownVenue() {
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body(suite.marshal(PredictRequest{
			Venues: []feature.Item{{VenueId: 404}},
		})).
		Expect(suite.T()).
		Status(http.StatusNotFound).
		End()
}

func (suite *ServerTestSuite) TestPredictModelNotLoaded() {
	suite.Scorer = mockScorer{invalid: true}
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body(suite.marshal(PredictRequest{
			Venues: []feature.Item{{VenueId: 1}},
		})).
		Expect(suite.T()).
		Status(http.StatusInternalServerError).
		End()
}

func (suite *ServerTestSuite) TestPredictBadRequest() {
	apitest.New().
		Handler(suite.handler).
		Post("/predict").
		Header("Content-Type", "application/json").
		Body("not json").
		Expect(suite.T()).
		Status(http.StatusBadRequest).
		End()
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
