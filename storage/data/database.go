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

package data

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/venues-ranker/venues-ranker/storage"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Venue is the feature row of one venue.
type Venue struct {
	VenueId                  int64   `gorm:"column:venue_id;primaryKey"`
	ConversionsPerImpression float32 `gorm:"column:conversions_per_impression"`
	PriceRange               int     `gorm:"column:price_range"`
	Rating                   float32 `gorm:"column:rating"`
	Popularity               float32 `gorm:"column:popularity"`
	RetentionRate            float32 `gorm:"column:retention_rate"`
}

func (Venue) TableName() string {
	return "venues"
}

// Database stores venue features.
type Database interface {
	// Init prepares the schema.
	Init() error
	// Close the connection.
	Close() error
	// Ping the database connection.
	Ping() error
	// BatchInsertVenues inserts or updates venues.
	BatchInsertVenues(ctx context.Context, venues []Venue) error
	// LookupVenues returns the venues of the given identifiers, keyed by
	// venue identifier. Missing venues are absent from the map.
	LookupVenues(ctx context.Context, venueIds []int64) (map[int64]Venue, error)
}

// Open a connection to a database. The scheme prefix of the path selects the
// driver.
func Open(path string) (Database, error) {
	var err error
	if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		database := new(SQLDatabase)
		database.gormDB, err = gorm.Open(mysql.Open(name), storage.NewGORMConfig())
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLDatabase)
		database.gormDB, err = gorm.Open(sqlite.Open(name), storage.NewGORMConfig())
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("unknown database: %s", path)
}
