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
	"os"
	"path/filepath"

	"github.com/emicklei/go-restful/v3"
	"github.com/juju/errors"
	"github.com/venues-ranker/venues-ranker/base/log"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/model/rank"
	"github.com/venues-ranker/venues-ranker/storage/blob"
	"github.com/venues-ranker/venues-ranker/storage/data"
	"go.uber.org/zap"
)

// Server is the prediction service. The model artifact is loaded once before
// the HTTP listener starts. A failed load keeps the service from accepting
// traffic.
type Server struct {
	RestServer
	blobStore blob.Store
}

// NewServer creates a prediction service node.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		RestServer: RestServer{
			Config:     cfg,
			DataClient: data.NoDatabase{},
			HttpHost:   cfg.Server.Host,
			HttpPort:   cfg.Server.Port,
			WebService: new(restful.WebService),
		},
	}
}

// Load connects collaborators and loads the model artifact. It must succeed
// before Serve is called.
func (s *Server) Load(ctx context.Context) error {
	// connect to the feature store
	database, err := data.Open(s.Config.Database.DSN())
	if err != nil {
		return errors.Trace(err)
	}
	if err = database.Ping(); err != nil {
		return errors.Trace(err)
	}
	s.DataClient = database

	// fetch the model artifact
	if s.blobStore == nil {
		if s.blobStore, err = blob.NewS3(s.Config.S3); err != nil {
			return errors.Trace(err)
		}
	}
	localPath := filepath.Join(s.Config.Train.ScratchDir, s.Config.S3.Weights)
	if err = s.blobStore.Download(ctx, s.Config.S3.Weights, localPath); err != nil {
		return errors.Annotatef(err, "failed to download model %s", s.Config.S3.Weights)
	}
	ranker, err := rank.Load(localPath)
	if err != nil {
		return errors.Trace(err)
	}
	s.Scorer = ranker
	// the artifact lives in memory now
	if err = os.Remove(localPath); err != nil {
		log.Logger().Warn("failed to remove model scratch file",
			zap.String("path", localPath), zap.Error(err))
	}
	log.Logger().Info("model loaded", zap.String("weights", s.Config.S3.Weights))
	return nil
}

// Serve starts the prediction service.
func (s *Server) Serve() {
	if err := s.Load(context.Background()); err != nil {
		log.Logger().Fatal("failed to load model", zap.Error(err))
	}
	s.StartHttpServer()
}
