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
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venues-ranker/venues-ranker/config"
)

func TestS3(t *testing.T) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_ENDPOINT is not set")
	}
	store, err := NewS3(config.S3Config{
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("S3_BUCKET"),
		Prefix:          uuid.New().String(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "ranker.cbm")
	assert.NoError(t, err)
	assert.False(t, exists)

	local := filepath.Join(t.TempDir(), "upload.cbm")
	require.NoError(t, os.WriteFile(local, []byte("artifact"), 0644))
	assert.NoError(t, store.Upload(ctx, local, "ranker.cbm"))

	exists, err = store.Exists(ctx, "ranker.cbm")
	assert.NoError(t, err)
	assert.True(t, exists)

	dest := filepath.Join(t.TempDir(), "download.cbm")
	assert.NoError(t, store.Download(ctx, "ranker.cbm", dest))
	data, err := os.ReadFile(dest)
	assert.NoError(t, err)
	assert.Equal(t, "artifact", string(data))
}
