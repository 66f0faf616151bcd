package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T, monitorPings bool) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	// gorm pings once on open
	if monitorPings {
		mock.ExpectPing()
	}

	log, err := logger.Development()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.PrepareStmt = false
	cfg.SkipDefaultTx = true
	cfg.LogLevel = "silent"

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg, log)
	require.NoError(t, err)
	return db, mock
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default config", mutate: func(c *Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "missing user", mutate: func(c *Config) { c.User = "" }, wantErr: true},
		{name: "missing dbname", mutate: func(c *Config) { c.DBName = "" }, wantErr: true},
		{name: "invalid SSL mode", mutate: func(c *Config) { c.SSLMode = "invalid" }, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "idle exceeds open", mutate: func(c *Config) { c.MaxIdleConns, c.MaxOpenConns = 100, 10 }, wantErr: true},
		{name: "negative lifetime", mutate: func(c *Config) { c.ConnMaxLifetime = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := &Config{
		Host:     "db",
		Port:     5433,
		User:     "app",
		Password: "secret",
		DBName:   "search",
		SSLMode:  "require",
		Timezone: "Asia/Tokyo",
	}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=search sslmode=require TimeZone=Asia/Tokyo", cfg.DSN())

	cfg.Timezone = ""
	assert.NotContains(t, cfg.DSN(), "TimeZone")
}

func TestIsRecordNotFoundError(t *testing.T) {
	assert.True(t, IsRecordNotFoundError(gorm.ErrRecordNotFound))
	assert.True(t, IsRecordNotFoundError(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)))
	assert.False(t, IsRecordNotFoundError(errors.New("other")))
	assert.False(t, IsRecordNotFoundError(nil))
}

func TestDB_HealthCheck(t *testing.T) {
	db, mock := newMockDB(t, true)

	mock.ExpectPing()
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, db.HealthCheck(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

type pageRow struct {
	ID   string
	Name string
}

func (pageRow) TableName() string { return "rows" }

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		wantSQL  string
	}{
		{"first page", 1, 10, `SELECT \* FROM "rows" LIMIT \$1`},
		{"third page", 3, 10, `SELECT \* FROM "rows" LIMIT \$1 OFFSET \$2`},
		{"defaults", 0, 0, `SELECT \* FROM "rows" LIMIT \$1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t, false)
			mock.ExpectQuery(tt.wantSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("1", "a"))

			var rows []pageRow
			err := db.GetDB().Scopes(Paginate(tt.page, tt.pageSize)).Find(&rows).Error
			require.NoError(t, err)
			assert.Len(t, rows, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWhereIf(t *testing.T) {
	db, mock := newMockDB(t, false)

	mock.ExpectQuery(`SELECT \* FROM "rows" WHERE name = \$1`).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`SELECT \* FROM "rows"$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	var rows []pageRow
	require.NoError(t, db.GetDB().Scopes(WhereIf(true, "name = ?", "a")).Find(&rows).Error)
	require.NoError(t, db.GetDB().Scopes(WhereIf(false, "name = ?", "b")).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
