// Copyright 2019 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// DatabaseType is the storage backend named by [database] DB_TYPE
type DatabaseType string

const (
	DatabaseSQLite3  DatabaseType = "sqlite3"
	DatabasePostgres DatabaseType = "postgres"
	DatabaseMySQL    DatabaseType = "mysql"
	DatabaseBolt     DatabaseType = "bolt"
)

// SupportedDatabaseTypes includes all XORM supported databases type, bolt is handled outside of XORM
var SupportedDatabaseTypes = []DatabaseType{DatabaseSQLite3, DatabasePostgres, DatabaseMySQL, DatabaseBolt}

// DatabaseSettings holds the [database] section
type DatabaseSettings struct {
	Type            DatabaseType
	Host            string
	Name            string
	User            string
	Passwd          string
	SSLMode         string
	Path            string
	LogSQL          bool
	Timeout         int // seconds
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database holds the database settings
var Database = DatabaseSettings{
	Type:         DatabaseSQLite3,
	Timeout:      500,
	MaxOpenConns: 2,
	MaxIdleConns: 2,
}

// loadDatabaseFrom loads the database settings
func loadDatabaseFrom(rootCfg ConfigProvider) error {
	sec := rootCfg.Section("database")
	Database.Type = DatabaseType(strings.ToLower(sec.Key("DB_TYPE").MustString(string(DatabaseSQLite3))))

	supported := false
	for _, t := range SupportedDatabaseTypes {
		if Database.Type == t {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database type %q", Database.Type)
	}

	Database.Host = sec.Key("HOST").String()
	Database.Name = sec.Key("NAME").String()
	Database.User = sec.Key("USER").String()
	if len(Database.Passwd) == 0 {
		Database.Passwd = sec.Key("PASSWD").String()
	}
	Database.SSLMode = sec.Key("SSL_MODE").MustString("disable")

	defaultPath := filepath.Join(AppDataPath, "starchart.db")
	if Database.Type == DatabaseBolt {
		defaultPath = filepath.Join(AppDataPath, "starchart.bolt")
	}
	Database.Path = sec.Key("PATH").MustString(defaultPath)
	if !filepath.IsAbs(Database.Path) {
		Database.Path = filepath.Join(AppWorkPath, Database.Path)
	}
	Database.Timeout = sec.Key("SQLITE_TIMEOUT").MustInt(500)
	Database.LogSQL = sec.Key("LOG_SQL").MustBool(false)

	Database.MaxOpenConns = sec.Key("MAX_OPEN_CONNS").MustInt(2)
	if Database.MaxOpenConns < 2 {
		return fmt.Errorf("[database] MAX_OPEN_CONNS must be at least 2, got %d", Database.MaxOpenConns)
	}
	Database.MaxIdleConns = sec.Key("MAX_IDLE_CONNS").MustInt(Database.MaxOpenConns)
	Database.ConnMaxLifetime = time.Duration(sec.Key("CONN_MAX_LIFETIME").MustInt64(0)) * time.Second
	return nil
}

// IsSQLite3 returns true if the database type is sqlite3
func (t DatabaseType) IsSQLite3() bool {
	return t == DatabaseSQLite3
}

// IsPostgreSQL returns true if the database type is postgres
func (t DatabaseType) IsPostgreSQL() bool {
	return t == DatabasePostgres
}

// IsMySQL returns true if the database type is mysql
func (t DatabaseType) IsMySQL() bool {
	return t == DatabaseMySQL
}

// IsBolt returns true if the database type is bolt
func (t DatabaseType) IsBolt() bool {
	return t == DatabaseBolt
}

// DBConnStr returns the database driver name and connection string
func DBConnStr() (string, string, error) {
	switch Database.Type {
	case DatabaseMySQL:
		connType := "tcp"
		if len(Database.Host) > 0 && Database.Host[0] == '/' { // looks like a unix socket
			connType = "unix"
		}
		tls := Database.SSLMode
		if tls == "disable" { // allow (Postgres-inspired) default value to work in MySQL
			tls = "false"
		}
		paramSep := "?"
		if strings.Contains(Database.Name, paramSep) {
			paramSep = "&"
		}
		return "mysql", fmt.Sprintf("%s:%s@%s(%s)/%s%sparseTime=true&tls=%s",
			Database.User, Database.Passwd, connType, Database.Host, Database.Name, paramSep, tls), nil
	case DatabasePostgres:
		return "postgres", getPostgreSQLConnectionString(Database.Host, Database.User, Database.Passwd, Database.Name, Database.SSLMode), nil
	case DatabaseSQLite3:
		return "sqlite3", fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=%d&_txlock=immediate&_journal_mode=WAL&_foreign_keys=1",
			Database.Path, Database.Timeout), nil
	default:
		return "", "", fmt.Errorf("database type %q has no SQL connection string", Database.Type)
	}
}

// parsePostgreSQLHostPort parses given input in various forms defined in
// https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-CONNSTRING
// and returns proper host and port number.
func parsePostgreSQLHostPort(info string) (host, port string) {
	if h, p, err := net.SplitHostPort(info); err == nil {
		host, port = h, p
	} else {
		// treat the "info" as "host", if it's an IPv6 address, remove the wrapper
		host = info
		if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
			host = host[1 : len(host)-1]
		}
	}

	// set fallback values
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "5432"
	}
	return host, port
}

func getPostgreSQLConnectionString(dbHost, dbUser, dbPasswd, dbName, dbsslMode string) (connStr string) {
	dbName, dbParam, _ := strings.Cut(dbName, "?")
	host, port := parsePostgreSQLHostPort(dbHost)
	connURL := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPasswd),
		Host:     net.JoinHostPort(host, port),
		Path:     dbName,
		OmitHost: false,
		RawQuery: dbParam,
	}
	query := connURL.Query()
	if strings.HasPrefix(host, "/") { // looks like a unix socket
		query.Add("host", host)
		connURL.Host = ":" + port
	}
	query.Set("sslmode", dbsslMode)
	connURL.RawQuery = query.Encode()
	return connURL.String()
}
