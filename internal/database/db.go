package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// Options tunes how Open reaches MySQL.  Zero values fall back to a
// single attempt.
type Options struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
	Log      logrus.FieldLogger
}

// DSN builds the MySQL data source name used by Open.
func DSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// Open connects to MySQL and verifies the connection.  The ping is retried
// with exponential backoff so the API can start alongside its database in
// docker-compose style deployments.
func Open(user, pass, host, port, name string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 1
	}
	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		retry.Attempts(attempts),
		retry.Delay(opts.Delay),
		retry.MaxDelay(opts.MaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if opts.Log != nil {
				opts.Log.WithField("attempt", n+1).WithError(err).Warn("database: ping failed")
			}
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
