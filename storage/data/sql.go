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

	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLDatabase is a Database backed by a SQL database through GORM.
type SQLDatabase struct {
	gormDB *gorm.DB
}

func (d *SQLDatabase) Init() error {
	return errors.Trace(d.gormDB.AutoMigrate(&Venue{}))
}

func (d *SQLDatabase) Close() error {
	db, err := d.gormDB.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(db.Close())
}

func (d *SQLDatabase) Ping() error {
	db, err := d.gormDB.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(db.Ping())
}

func (d *SQLDatabase) BatchInsertVenues(ctx context.Context, venues []Venue) error {
	if len(venues) == 0 {
		return nil
	}
	err := d.gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(venues).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) LookupVenues(ctx context.Context, venueIds []int64) (map[int64]Venue, error) {
	if len(venueIds) == 0 {
		return map[int64]Venue{}, nil
	}
	var rows []Venue
	err := d.gormDB.WithContext(ctx).
		Where("venue_id IN ?", venueIds).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	venues := make(map[int64]Venue, len(rows))
	for _, venue := range rows {
		venues[venue.VenueId] = venue
	}
	return venues, nil
}
