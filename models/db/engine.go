// Copyright 2014 The Gogs Authors. All rights reserved.
// Copyright 2018 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeberg.org/forgeflux/starchart/modules/setting"

	"xorm.io/xorm"
	"xorm.io/xorm/names"

	_ "github.com/go-sql-driver/mysql" // Needed for the MySQL driver
	_ "github.com/lib/pq"              // Needed for the Postgresql driver
	_ "github.com/mattn/go-sqlite3"    // Needed for the SQLite3 driver
)

var (
	x         *xorm.Engine
	tables    []any
	initFuncs []func() error
)

// Engine represents a xorm engine or session.
type Engine interface {
	Table(tableNameOrBean any) *xorm.Session
	Count(...any) (int64, error)
	Delete(...any) (int64, error)
	Exec(...any) (sql.Result, error)
	Find(any, ...any) error
	Get(beans ...any) (bool, error)
	ID(any) *xorm.Session
	In(string, ...any) *xorm.Session
	Insert(...any) (int64, error)
	SQL(any, ...any) *xorm.Session
	Where(any, ...any) *xorm.Session
	Asc(colNames ...string) *xorm.Session
	Desc(colNames ...string) *xorm.Session
	Limit(limit int, start ...int) *xorm.Session
	NoAutoCondition(...bool) *xorm.Session
	Sync(...any) error
	Select(string) *xorm.Session
	NotIn(string, ...any) *xorm.Session
	OrderBy(any, ...any) *xorm.Session
	Exist(...any) (bool, error)
	Query(...any) ([]map[string][]byte, error)
	Cols(...string) *xorm.Session
}

// RegisterModel registers model, if initfunc provided, it will be invoked after data model sync
func RegisterModel(bean any, initFunc ...func() error) {
	tables = append(tables, bean)
	if len(initFunc) > 0 && initFunc[0] != nil {
		initFuncs = append(initFuncs, initFunc[0])
	}
}

// Tables returns every registered model
func Tables() []any {
	return tables
}

// InitEngine initializes the xorm.Engine and sets it as db.DefaultContext
func InitEngine(ctx context.Context) error {
	driver, connStr, err := setting.DBConnStr()
	if err != nil {
		return err
	}

	xormEngine, err := xorm.NewEngine(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if setting.Database.Type.IsMySQL() {
		xormEngine.Dialect().SetParams(map[string]string{"rowFormat": "DYNAMIC"})
	}

	xormEngine.SetMapper(names.GonicMapper{})
	xormEngine.SetLogger(NewXORMLogger(setting.Database.LogSQL))
	xormEngine.ShowSQL(setting.Database.LogSQL)
	xormEngine.SetMaxOpenConns(setting.Database.MaxOpenConns)
	xormEngine.SetMaxIdleConns(setting.Database.MaxIdleConns)
	xormEngine.SetConnMaxLifetime(setting.Database.ConnMaxLifetime)
	xormEngine.SetDefaultContext(ctx)

	SetDefaultEngine(ctx, xormEngine)
	return nil
}

// SetDefaultEngine sets the default engine for db
func SetDefaultEngine(ctx context.Context, eng *xorm.Engine) {
	x = eng
	DefaultContext = &Context{
		Context: ctx,
		e:       x,
	}
}

// UnsetDefaultEngine closes and unsets the default engine
func UnsetDefaultEngine() {
	if x != nil {
		_ = x.Close()
		x = nil
	}
	DefaultContext = nil
}

// InitEngineWithMigration initializes a new xorm.Engine and sets it as the XORM's default context.
// The tables are only synced after migrateFunc succeeded.
func InitEngineWithMigration(ctx context.Context, migrateFunc func(*xorm.Engine) error) (err error) {
	if err = InitEngine(ctx); err != nil {
		return err
	}
	return MigrateEngine(ctx, migrateFunc)
}

// MigrateEngine runs migrateFunc on the default engine, syncs the registered
// models and runs their init functions. It is safe to call on every start.
func MigrateEngine(ctx context.Context, migrateFunc func(*xorm.Engine) error) error {
	if x == nil {
		return errors.New("database is not initialized")
	}
	if err := Ping(ctx); err != nil {
		return err
	}

	if err := migrateFunc(x); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := SyncAllTables(); err != nil {
		return fmt.Errorf("sync database struct error: %w", err)
	}

	return RunInitFuncs()
}

// SyncAllTables sync the schemas of all tables
func SyncAllTables() error {
	return x.StoreEngine("InnoDB").Sync(tables...)
}

// RunInitFuncs invokes the functions registered along with the models
func RunInitFuncs() error {
	for _, initFunc := range initFuncs {
		if err := initFunc(); err != nil {
			return fmt.Errorf("initFunc failed: %w", err)
		}
	}
	return nil
}

// Ping tests if database is alive
func Ping(ctx context.Context) error {
	if x == nil {
		return errors.New("database is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return x.DB().PingContext(ctx)
}
