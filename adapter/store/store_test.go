package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/stretchr/testify/suite"
)

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type StoreTestSuite struct {
	suite.Suite
	db      *sql.DB
	adapter *Adapter
}

func (s *StoreTestSuite) SetupSuite() {
	opts := url.Values{}
	opts.Set("_fk", "true")
	opts.Set("_journal", "WAL")
	opts.Set("_timeout", "5000")

	dbPath := filepath.Join(s.T().TempDir(), "pandaqa_test.db")

	var err error
	s.db, err = sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", dbPath, opts.Encode()))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Ping())
}

func (s *StoreTestSuite) TearDownSuite() {
	s.Require().NoError(s.db.Close())
}

func (s *StoreTestSuite) SetupTest() {
	// Migrate down and migrate up to have a clean schema
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	s.Require().NoError(err)

	migrationsPath, err := filepath.Abs("../../db/migrations")
	s.Require().NoError(err)

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"sqlite3", driver)
	s.Require().NoError(err)
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.Require().NoError(err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.Require().NoError(err)
	}
	s.adapter = New(s.db)
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}
