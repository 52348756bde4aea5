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
	"fmt"
	"net/http"
	"sort"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/venues-ranker/venues-ranker/base/log"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/feature"
	"github.com/venues-ranker/venues-ranker/storage/data"
	"go.uber.org/zap"
)

// Scorer is the read-only scoring capability of a loaded ranking model. The
// handle is constructed once at startup and shared across concurrent request
// handlers without locking.
type Scorer interface {
	// Predict returns one relevance score per feature row, in row order.
	Predict(rows [][]float32) []float32
	// Invalid reports whether no model is loaded.
	Invalid() bool
}

// RestServer implements the ranking REST API.
type RestServer struct {
	Config     *config.Config
	DataClient data.Database
	Scorer     Scorer
	HttpHost   string
	HttpPort   int
	WebService *restful.WebService

	assembler feature.Assembler
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	IsNewUser bool           `json:"is_new_user"`
	Venues    []feature.Item `json:"venues"`
}

// VenueScore is one scored venue of a prediction response.
type VenueScore struct {
	VenueId int64   `json:"venue_id"`
	Score   float32 `json:"score"`
}

// PredictResponse is the body of a prediction response, sorted by descending
// score.
type PredictResponse struct {
	VenuesAndScores []VenueScore `json:"venues_and_scores"`
}

// Pong is the liveness probe response.
type Pong struct {
	Ping string `json:"ping"`
}

// StartHttpServer starts the REST API server.
func (s *RestServer) StartHttpServer() {
	s.CreateWebService()
	restful.DefaultContainer.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: restful.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	restful.DefaultContainer.Add(restfulspec.NewOpenAPIService(specConfig))
	http.Handle("/metrics", promhttp.Handler())

	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s:%d", s.HttpHost, s.HttpPort)))
	log.Logger().Fatal("failed to start http server",
		zap.Error(http.ListenAndServe(fmt.Sprintf("%s:%d", s.HttpHost, s.HttpPort), nil)))
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	chain.ProcessFilter(req, resp)
	log.Logger().Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// CreateWebService creates the ranking web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/")
	ws.Filter(LogFilter)

	ws.Route(ws.POST("/predict").To(s.predict).
		Doc("Rank venues by predicted relevance.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"ranking"}).
		Reads(PredictRequest{}).
		Writes(PredictResponse{}))
	ws.Route(ws.GET("/ping").To(s.ping).
		Doc("Liveness probe.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Writes(Pong{}))
}

func (s *RestServer) ping(_ *restful.Request, response *restful.Response) {
	Ok(response, Pong{Ping: "pong"})
}

func (s *RestServer) predict(request *restful.Request, response *restful.Response) {
	start := time.Now()
	var body PredictRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, err)
		return
	}
	// an empty candidate list needs no model invocation
	if len(body.Venues) == 0 {
		Ok(response, PredictResponse{VenuesAndScores: []VenueScore{}})
		return
	}
	if s.Scorer == nil || s.Scorer.Invalid() {
		InternalServerError(response, errors.New("model is not loaded"))
		return
	}
	venueIds := make([]int64, len(body.Venues))
	for i, item := range body.Venues {
		venueIds[i] = item.VenueId
	}
	venues, err := s.DataClient.LookupVenues(request.Request.Context(), venueIds)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	rows, err := s.assembler.Assemble(body.IsNewUser, body.Venues, venues)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			PageNotFound(response, err)
		} else {
			InternalServerError(response, err)
		}
		return
	}
	scores := s.Scorer.Predict(rows)
	result := make([]VenueScore, len(scores))
	for i, score := range scores {
		result[i] = VenueScore{VenueId: body.Venues[i].VenueId, Score: score}
	}
	// stable sort keeps the input order of equally scored venues
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	PredictSeconds.Observe(time.Since(start).Seconds())
	Ok(response, PredictResponse{VenuesAndScores: result})
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns an internal server error.
func InternalServerError(response *restful.Response, err error) {
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
