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

package blob

import (
	"context"
	"os"
	"path"

	"github.com/juju/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/venues-ranker/venues-ranker/config"
)

// S3 is a Store backed by an S3 compatible object storage.
type S3 struct {
	*minio.Client
	bucket string
	prefix string
}

func NewS3(cfg config.S3Config) (*S3, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &S3{
		Client: minioClient,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Client.StatObject(ctx, s.bucket, path.Join(s.prefix, name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	return true, nil
}

func (s *S3) Download(ctx context.Context, name, localPath string) error {
	// FGetObject keeps a stale destination on failure, remove it first
	if err := os.RemoveAll(localPath); err != nil {
		return errors.Trace(err)
	}
	err := s.Client.FGetObject(ctx, s.bucket, path.Join(s.prefix, name), localPath, minio.GetObjectOptions{})
	return errors.Trace(err)
}

func (s *S3) Upload(ctx context.Context, localPath, name string) error {
	_, err := s.Client.FPutObject(ctx, s.bucket, path.Join(s.prefix, name), localPath, minio.PutObjectOptions{})
	return errors.Trace(err)
}
