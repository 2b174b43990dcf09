/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/cmdutil-go/pkg/utils/cmd"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/storage"
	"github.com/trustbloc/wallet-engine/pkg/storage/mem"
	"github.com/trustbloc/wallet-engine/pkg/storage/mongodb"
	"github.com/trustbloc/wallet-engine/pkg/storage/redis"
)

const (
	// DatabaseURLFlagName is the database url.
	DatabaseURLFlagName = "database-url"
	// DatabaseURLFlagUsage describes the usage.
	DatabaseURLFlagUsage = "Database URL with credentials if required." +
		" Format must be <driver>:[//]<driver-specific-dsn>." +
		" Examples: 'mem://test', 'redis://:secret@localhost:6379', 'mongodb://mongodb.example.com:27017'." +
		" Supported drivers are [mem, redis, mongodb]. Defaults to mem." +
		" Alternatively, this can be set with the following environment variable: " + DatabaseURLEnvKey
	// DatabaseURLEnvKey is the database url.
	DatabaseURLEnvKey = "WALLET_DATABASE_URL"

	// DatabaseTimeoutFlagName is the database timeout.
	DatabaseTimeoutFlagName = "database-timeout"
	// DatabaseTimeoutFlagUsage describes the usage.
	DatabaseTimeoutFlagUsage = "Number of one second retries to make until the datasource is available before" +
		" giving up. Default: 30." +
		" Alternatively, this can be set with the following environment variable: " + DatabaseTimeoutEnvKey
	// DatabaseTimeoutEnvKey is the database timeout.
	DatabaseTimeoutEnvKey = "WALLET_DATABASE_TIMEOUT"

	// DatabasePrefixFlagName is the storage prefix.
	DatabasePrefixFlagName = "database-prefix"
	// DatabasePrefixEnvKey is the storage prefix.
	DatabasePrefixEnvKey = "WALLET_DATABASE_PREFIX"
	// DatabasePrefixFlagUsage describes the usage.
	DatabasePrefixFlagUsage = "An optional prefix to be used when creating and retrieving underlying databases. " +
		"Alternatively, this can be set with the following environment variable: " + DatabasePrefixEnvKey

	// DatabaseTimeoutDefault is the default storage timeout.
	DatabaseTimeoutDefault = 30

	defaultDatabaseURL  = "mem://wallet"
	defaultDatabaseName = "wallet"
)

// DBParameters holds database configuration.
type DBParameters struct {
	URL     string
	Prefix  string
	Timeout uint64

	// TracerProvider instruments the redis and mongodb clients when set.
	TracerProvider trace.TracerProvider
}

type providerFunc func(dsn string, params *DBParameters) (storage.Provider, error)

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]providerFunc{
	"mem": func(_ string, _ *DBParameters) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	"redis":   newRedisProvider,
	"mongodb": newMongoDBProvider,
}

// Flags registers the database flags as persistent flags of cmd.
func Flags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(DatabaseURLFlagName, "", "", DatabaseURLFlagUsage)
	cmd.PersistentFlags().StringP(DatabasePrefixFlagName, "", "", DatabasePrefixFlagUsage)
	cmd.PersistentFlags().StringP(DatabaseTimeoutFlagName, "", "", DatabaseTimeoutFlagUsage)
}

// DBParams fetches the DB parameters configured for this command.
func DBParams(cmd *cobra.Command) (*DBParameters, error) {
	params := &DBParameters{
		URL:    cmdutils.GetUserSetOptionalVarFromString(cmd, DatabaseURLFlagName, DatabaseURLEnvKey),
		Prefix: cmdutils.GetUserSetOptionalVarFromString(cmd, DatabasePrefixFlagName, DatabasePrefixEnvKey),
	}

	if params.URL == "" {
		params.URL = defaultDatabaseURL
	}

	timeout := cmdutils.GetUserSetOptionalVarFromString(cmd, DatabaseTimeoutFlagName, DatabaseTimeoutEnvKey)
	if timeout == "" {
		timeout = strconv.Itoa(DatabaseTimeoutDefault)
	}

	var err error

	params.Timeout, err = strconv.ParseUint(timeout, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dbTimeout %s: %w", timeout, err)
	}

	return params, nil
}

// InitStore opens the storage provider selected by the database URL.
func InitStore(params *DBParameters, logger *log.Log) (storage.Provider, error) {
	driver, dsn, err := parseURL(params.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", params.URL, err)
	}

	newProvider, supported := supportedStorageProviders[driver]
	if !supported {
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}

	var provider storage.Provider

	err = retry(
		func() error {
			var openErr error
			provider, openErr = newProvider(dsn, params)
			return openErr
		},
		params.Timeout,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage provider: %w", err)
	}

	logger.Debug("Storage provider initialized", logfields.WithStore(driver))

	return provider, nil
}

// newRedisProvider expects [:password@]host:port[,host:port...][/db].
func newRedisProvider(dsn string, params *DBParameters) (storage.Provider, error) {
	opts := []redis.ClientOpt{redis.WithKeyPrefix(params.Prefix)}

	if password, addrs, found := strings.Cut(dsn, "@"); found {
		opts = append(opts, redis.WithPassword(strings.TrimPrefix(password, ":")))
		dsn = addrs
	}

	dsn, db, _ := strings.Cut(dsn, "/")
	if db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %w", db, err)
		}

		opts = append(opts, redis.WithDatabase(n))
	}

	if dsn == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	if params.TracerProvider != nil {
		opts = append(opts, redis.WithTraceProvider(params.TracerProvider))
	}

	client, err := redis.New(strings.Split(dsn, ","), opts...)
	if err != nil {
		return nil, err
	}

	return redis.NewProvider(client), nil
}

func newMongoDBProvider(connString string, params *DBParameters) (storage.Provider, error) {
	dbName := defaultDatabaseName
	if params.Prefix != "" {
		dbName = params.Prefix + "_" + defaultDatabaseName
	}

	var opts []mongodb.ClientOpt

	if params.TracerProvider != nil {
		opts = append(opts, mongodb.WithTraceProvider(params.TracerProvider))
	}

	client, err := mongodb.New(connString, dbName, opts...)
	if err != nil {
		return nil, err
	}

	return mongodb.NewProvider(client), nil
}

func parseURL(u string) (string, string, error) {
	const urlParts = 2

	parsed := strings.SplitN(u, ":", urlParts)

	if len(parsed) != urlParts {
		return "", "", fmt.Errorf("invalid dbURL %s", u)
	}

	driver := parsed[0]

	if driver == "mongodb" || driver == "mongodb+srv" {
		// The MongoDB client needs the full connection string (including the driver as part of it).
		if _, err := url.Parse(u); err != nil {
			return "", "", fmt.Errorf("invalid dbURL %s: %w", u, err)
		}

		return "mongodb", u, nil
	}

	dsn := strings.TrimPrefix(parsed[1], "//")

	return driver, dsn, nil
}

func retry(task func() error, numRetries uint64, logger *log.Log) error {
	const sleep = 1 * time.Second

	return backoff.RetryNotify(
		task,
		backoff.WithMaxRetries(backoff.NewConstantBackOff(sleep), numRetries),
		func(retryErr error, t time.Duration) {
			logger.Warn("Failed to connect to storage, will sleep before trying again.",
				logfields.WithSleep(t), log.WithError(retryErr))
		},
	)
}
