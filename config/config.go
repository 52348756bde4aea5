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

package config

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the prediction service and the training
// pipeline. Fields are populated from an optional TOML file and from
// environment variables; environment variables win.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Train    TrainConfig    `mapstructure:"train"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Workers int    `mapstructure:"workers"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN assembles the database URL consumed by storage/data.Open.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s://%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.Driver, c.User, c.Password, c.Host, c.Port, c.Database)
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Weights         string `mapstructure:"weights"`
}

type TrainConfig struct {
	SessionsKey string `mapstructure:"sessions_key"`
	VenuesKey   string `mapstructure:"venues_key"`
	NumFolds    int    `mapstructure:"num_folds"`
	RandomState int64  `mapstructure:"random_state"`
	ScratchDir  string `mapstructure:"scratch_dir"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8087,
			Workers: 1,
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "127.0.0.1",
			Port:   3306,
		},
		S3: S3Config{
			Weights: "ranker.cbm",
		},
		Train: TrainConfig{
			SessionsKey: "data/sessions.csv",
			VenuesKey:   "data/venues.csv",
			NumFolds:    5,
			RandomState: 21,
			ScratchDir:  "/tmp/venues-ranker",
		},
	}
}

// environment variable bindings, compatible with the deployment manifests
var envBindings = []struct {
	key string
	env string
}{
	{"server.host", "APP_HOST"},
	{"server.port", "APP_PORT"},
	{"server.workers", "APP_WORKERS"},
	{"database.driver", "MYSQL_DRIVER"},
	{"database.host", "MYSQL_HOST"},
	{"database.port", "MYSQL_PORT"},
	{"database.user", "MYSQL_USER"},
	{"database.password", "MYSQL_PASSWORD"},
	{"database.database", "MYSQL_DATABASE"},
	{"s3.endpoint", "MINIO_URL"},
	{"s3.access_key_id", "MINIO_ACCESS_KEY"},
	{"s3.secret_access_key", "MINIO_SECRET_KEY"},
	{"s3.bucket", "MINIO_BUCKET"},
	{"s3.prefix", "MINIO_FOLDER"},
	{"s3.weights", "MINIO_WEIGHTS"},
	{"train.sessions_key", "TRAIN_SESSIONS"},
	{"train.venues_key", "TRAIN_VENUES"},
	{"train.num_folds", "TRAIN_NUM_FOLDS"},
	{"train.scratch_dir", "TRAIN_SCRATCH_DIR"},
	{"train.random_state", "RANDOM_STATE"},
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.workers", defaultConfig.Server.Workers)
	v.SetDefault("database.driver", defaultConfig.Database.Driver)
	v.SetDefault("database.host", defaultConfig.Database.Host)
	v.SetDefault("database.port", defaultConfig.Database.Port)
	v.SetDefault("s3.weights", defaultConfig.S3.Weights)
	v.SetDefault("train.sessions_key", defaultConfig.Train.SessionsKey)
	v.SetDefault("train.venues_key", defaultConfig.Train.VenuesKey)
	v.SetDefault("train.num_folds", defaultConfig.Train.NumFolds)
	v.SetDefault("train.random_state", defaultConfig.Train.RandomState)
	v.SetDefault("train.scratch_dir", defaultConfig.Train.ScratchDir)
}

// LoadConfig loads configuration from the TOML file at path (may be empty)
// overridden by environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	for _, binding := range envBindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Trace(err)
	}
	config.Validate()
	return &config, nil
}

// Validate panics if the configuration is unusable.
func (config *Config) Validate() {
	validatePositive("server.port", config.Server.Port)
	validatePositive("server.workers", config.Server.Workers)
	validateIn("database.driver", config.Database.Driver, []string{"mysql"})
	validatePositive("train.num_folds", config.Train.NumFolds)
	validateNotEmpty("s3.weights", config.S3.Weights)
	validateNotEmpty("train.sessions_key", config.Train.SessionsKey)
	validateNotEmpty("train.venues_key", config.Train.VenuesKey)
	if strings.HasPrefix(config.S3.Endpoint, "http://") || strings.HasPrefix(config.S3.Endpoint, "https://") {
		panic(fmt.Sprintf("value of `s3.endpoint` must be host:port without scheme, but the current value is %s",
			config.S3.Endpoint))
	}
}
