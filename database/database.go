// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNoPool = errors.New("database pool is not configured")
)

var (
	pool             PgxIface
	openTransactions map[string]string
	locker           sync.Mutex
)

// SetPool replaces the connection pool; tests pass a pgxmock connection
func SetPool(myPool PgxIface) {
	locker.Lock()
	defer locker.Unlock()
	openTransactions = make(map[string]string)
	pool = myPool
}

// Configured returns true when a pool has been set
func Configured() bool {
	locker.Lock()
	defer locker.Unlock()
	return pool != nil
}

// Connect creates a pool for the database.url connection string
func Connect(ctx context.Context) error {
	myPool, err := pgxpool.Connect(ctx, viper.GetString("database.url"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		return err
	}
	SetPool(myPool)
	return nil
}

// Begin starts a transaction that is tracked until it is committed or rolled back
func Begin(ctx context.Context) (pgx.Tx, error) {
	locker.Lock()
	myPool := pool
	locker.Unlock()

	if myPool == nil {
		return nil, ErrNoPool
	}

	tx, err := myPool.Begin(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not begin transaction")
		return nil, err
	}

	caller := "unknown"
	if _, file, no, ok := runtime.Caller(1); ok {
		caller = fmt.Sprintf("%s:%d", file, no)
	}

	id := uuid.New().String()
	locker.Lock()
	openTransactions[id] = caller
	locker.Unlock()

	return &trackedTx{Tx: tx, id: id}, nil
}

// LogOpenTransactions writes an INFO log for each open transaction
func LogOpenTransactions() {
	locker.Lock()
	defer locker.Unlock()
	for k, v := range openTransactions {
		log.Info().Str("TrxId", k).Str("Caller", v).Msg("open transaction")
	}
}

// OpenTransactions returns the number of transactions that have not been closed
func OpenTransactions() int {
	locker.Lock()
	defer locker.Unlock()
	return len(openTransactions)
}
