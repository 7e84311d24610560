// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cfg1 makes it possible to load configuration settings with
// version 1.x.y since all minor and patch versions (which are known)
// with the same major version, can be loaded with one implementation.
// Settings are read from a yaml file and may be overridden by the
// RDWEB_* environment variables afterwards.
package cfg1

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/momeni/rentdispatch/pkg/adapter/auth/jwt"
	"github.com/momeni/rentdispatch/pkg/adapter/config/settings"
	"github.com/momeni/rentdispatch/pkg/adapter/config/vers"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres/migration"
	"github.com/momeni/rentdispatch/pkg/adapter/kv/redis"
	"github.com/momeni/rentdispatch/pkg/adapter/mq/amqp"
	"github.com/momeni/rentdispatch/pkg/adapter/obs"
	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin"
	"github.com/momeni/rentdispatch/pkg/core/log"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"github.com/momeni/rentdispatch/pkg/core/repo"
	"github.com/momeni/rentdispatch/pkg/core/usecase/eventuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/lockuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/partnersuc"
	"github.com/momeni/rentdispatch/pkg/core/usecase/ratelimituc"
)

// These constants define the major, minor, and patch version of the
// configuration settings which are supported by the Config struct.
const (
	Major = 1
	Minor = 0
	Patch = 0
)

// Version is the semantic version of Config struct.
var Version = model.SemVer{Major, Minor, Patch}

// EnvPrefix is the prefix of environment variables which may override
// the settings of a configuration file, e.g., RDWEB_REDIS_ADDR.
const EnvPrefix = "RDWEB"

// Config contains all settings which are required by different parts
// of the project following the v1.x.y format, such as adapters or
// use cases. It is preferred to implement Config with primitive fields
// or other structs which are defined locally, not models or structs
// which are defined in lower layers, so the configuration can be
// versioned and kept intact while other layers can change freely.
type Config struct {
	Database Database // PostgreSQL database connection settings
	Redis    Redis    // shared locks, counters, and pub/sub server
	Bus      Bus      // events transport selection
	Gin      Gin      // Gin-Gonic instantiation settings
	Auth     Auth     // bearer tokens verification settings
	Logging  Logging
	Tracing  Tracing
	Usecases Usecases // Configuration settings for supported use cases

	// Vers contains the configuration file and database schema version
	// strings corresponding to this Config instance and its Database
	// target.
	Vers vers.Config `yaml:",inline"`
}

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name, like rdweb
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. In the parallel test cases, it is required to create
	// multiple non-colliding roles in the same database cluster and
	// so having a unique (per test) role suffix helps with parallelism.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`
}

// ConnectionPool creates a database connection pool using the
// connection information which are kept in the `c` settings.
func (c *Config) ConnectionPool(
	ctx context.Context, r repo.Role,
) (*postgres.Pool, error) {
	p, err := c.Database.ConnectionPool(ctx, r)
	if err != nil {
		return nil, fmt.Errorf(
			"%#v.ConnectionPool: %w", c.Database, err,
		)
	}
	return p, nil
}

// NewSchemaRepo instantiates a fresh Schema repository for the
// database schema version of the `c` Config instance.
func (c *Config) NewSchemaRepo() repo.Schema {
	return migration.New()
}

// SchemaVersion returns the semantic version of the database schema
// which its connection information are kept by this Config struct.
func (c *Config) SchemaVersion() model.SemVer {
	return c.Vers.Versions.Database
}

// ConnectionPool creates a database connection pool using the
// connection information which are kept in the `d` settings.
// The .pgpass file in the d.PassDir folder is checked which should
// conform with the pgpass format with lines like this:
//
//	host:port:dbname:role:password
//
// The `d.RoleSuffix` will be appended to the given `r` role name too.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (*postgres.Pool, error) {
	path := filepath.Join(d.PassDir, ".pgpass")
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("connecting as %q: %w", r+d.RoleSuffix, err)
	}
	return p, nil
}

// ConnectionURL returns the database connection URL embedding the host,
// port, role name, database name, and password value. These items are
// directly taken from the `d` settings, but the role name which is
// specified by the `r` argument and the password value which is read
// from the given `path` file. Returned URL has the postgresql scheme.
// The `path` file may contain empty or `#`-commented lines in addition
// to the password specifying lines which should conform with the pgpass
// files format with lines like this:
//
//	host:port:dbname:role:password
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no matching password line")
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// ValidateAndNormalize validates the database settings and fills the
// missing host and port with the localhost:5432 defaults.
func (d *Database) ValidateAndNormalize() error {
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", d.Port)
	}
	if d.Name == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

// Redis contains the Redis server connection settings. A single Redis
// server backs the assignment locks, rate limiting counters, and the
// default events bus.
type Redis struct {
	Addr     *string // host:port of the server
	DB       *int    // logical database number
	Password *string `yaml:",omitempty"`
	PoolSize *int    `yaml:"pool-size"`
}

// NewClient connects to the Redis server and pings it.
func (r Redis) NewClient(ctx context.Context) (*goredis.Client, error) {
	opts := &goredis.Options{
		Addr:     *r.Addr,
		DB:       *r.DB,
		PoolSize: *r.PoolSize,
	}
	if r.Password != nil {
		opts.Password = *r.Password
	}
	return redis.Connect(ctx, opts)
}

// These constants are the acceptable Bus.Kind values.
const (
	BusRedis = "redis"
	BusAMQP  = "amqp"
)

// Bus selects the events transport. Redis pub/sub is used by default
// and a RabbitMQ topic exchange may be used instead.
type Bus struct {
	Kind     *string
	AMQPURL  *string `yaml:"amqp-url,omitempty"`
	Exchange *string
}

// NewBus creates the selected events bus. The rdb client is used for
// the redis kind. The returned closer must be called (for both kinds)
// when the bus is not needed anymore.
func (b Bus) NewBus(rdb goredis.UniversalClient) (
	bus repo.Bus, closer func() error, err error,
) {
	switch *b.Kind {
	case BusRedis:
		return redis.NewBus(rdb), func() error { return nil }, nil
	case BusAMQP:
		ab, err := amqp.Dial(*b.AMQPURL, *b.Exchange)
		if err != nil {
			return nil, nil, err
		}
		return ab, ab.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown bus kind: %q", *b.Kind)
	}
}

// ValidateAndNormalize fills the missing bus settings with defaults
// and ensures that an amqp bus has a broker url.
func (b *Bus) ValidateAndNormalize() error {
	settings.Default(&b.Kind, BusRedis)
	settings.Default(&b.Exchange, "rdweb.events")
	switch *b.Kind {
	case BusRedis:
	case BusAMQP:
		if b.AMQPURL == nil || *b.AMQPURL == "" {
			return fmt.Errorf("amqp bus requires the amqp-url setting")
		}
	default:
		return fmt.Errorf("unknown bus kind: %q", *b.Kind)
	}
	return nil
}

// Gin contains the gin-gonic related configuration settings.
// Fields are defined as pointers, so it is possible to detect if they
// are or are not initialized and fill them by their default values.
type Gin struct {
	Logger   *bool   // Whether to register the gin.Logger() middleware
	Recovery *bool   // Whether to register the gin.Recovery() middleware
	Addr     *string // listening address of the http server
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings.
func (g Gin) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// Auth contains the bearer tokens verification settings.
// The secret is usually provided by the RDWEB_AUTH_SECRET environment
// variable instead of the configuration file.
type Auth struct {
	Secret string `yaml:",omitempty"`
	Issuer string `yaml:",omitempty"`
}

// NewAuthority creates a tokens authority with the `a` settings.
func (a Auth) NewAuthority() (*jwt.Authority, error) {
	return jwt.New(a.Secret, a.Issuer)
}

// Logging contains the structured logging settings.
type Logging struct {
	Level  *string // debug, info, warn, or error
	Format *string // text or json
}

// NewHandler creates a slog handler which writes to w.
func (l Logging) NewHandler(w io.Writer) (slog.Handler, error) {
	return log.NewHandler(w, *l.Level, *l.Format)
}

// Tracing contains the OpenTelemetry exporter settings.
type Tracing struct {
	Enabled     *bool
	Endpoint    *string // host:port of the OTLP/gRPC collector
	ServiceName *string `yaml:"service-name"`
}

// Init installs the global tracer provider if tracing is enabled.
// The returned shutdown function is never nil.
func (t Tracing) Init(ctx context.Context, version string) (
	shutdown func(context.Context) error, err error,
) {
	if !*t.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	return obs.InitTracer(ctx, *t.Endpoint, *t.ServiceName, version)
}

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Assignment Assignment
	Partners   Partners
	Events     Events
}

// Assignment contains the settings of the booking assignment lock.
// A nil value indicates that the setting is left uninitialized, so
// the use cases layer may select a default value.
type Assignment struct {
	// LockTTL is the time to live of assignment locks and also the
	// maximum duration of an assignment critical section.
	LockTTL *settings.Duration `yaml:"lock-ttl"`
	// MinLockTTL is the inclusive minimum acceptable value for the
	// LockTTL setting. A missing value indicates that there is no
	// lower bound.
	MinLockTTL *settings.Duration `yaml:"lock-ttl-minimum"`
	// MaxLockTTL is the inclusive maximum acceptable value for the
	// LockTTL setting. A missing value indicates that there is no
	// upper bound.
	MaxLockTTL *settings.Duration `yaml:"lock-ttl-maximum"`
	// LockPolicy is strict or degraded. It decides if an assignment
	// may proceed without a lock when the locks server is unreachable.
	LockPolicy *string `yaml:"lock-policy"`
}

// NewLockUseCase instantiates a lock use case based on the settings in
// the `a` struct.
func (a Assignment) NewLockUseCase(l repo.Locker) (*lockuc.UseCase, error) {
	opts := make([]lockuc.Option, 0, 2)
	if a.LockTTL != nil {
		opts = append(opts, lockuc.WithTTL(time.Duration(*a.LockTTL)))
	}
	if a.LockPolicy != nil {
		p, err := model.ParseLockPolicy(*a.LockPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lockuc.WithPolicy(p))
	}
	return lockuc.New(l, opts...)
}

// Partners contains the settings of the partners use cases.
type Partners struct {
	// GPSRateLimit is the maximum number of location reports which
	// are accepted from one partner in each GPSRateWindow.
	GPSRateLimit  *int64             `yaml:"gps-rate-limit"`
	GPSRateWindow *settings.Duration `yaml:"gps-rate-window"`
	// LimiterPolicy is fail-open or fail-closed. It decides if reports
	// are accepted when the counters server is unreachable.
	LimiterPolicy *string `yaml:"limiter-policy"`
}

// NewLimiterUseCase instantiates a rate limiter use case based on the
// settings in the `p` struct.
func (p Partners) NewLimiterUseCase(
	c repo.Counter,
) (*ratelimituc.UseCase, error) {
	opts := make([]ratelimituc.Option, 0, 1)
	if p.LimiterPolicy != nil {
		lp, err := model.ParseLimitPolicy(*p.LimiterPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ratelimituc.WithPolicy(lp))
	}
	return ratelimituc.New(c, opts...)
}

// NewUseCase instantiates a partners use case based on the settings in
// the `p` struct.
func (p Partners) NewUseCase(
	pool repo.Pool,
	r repo.Partners,
	limiter *ratelimituc.UseCase,
	events *eventuc.UseCase,
) (*partnersuc.UseCase, error) {
	opts := make([]partnersuc.Option, 0, 1)
	if p.GPSRateLimit != nil || p.GPSRateWindow != nil {
		limit, window := int64(20), 10*time.Second
		if p.GPSRateLimit != nil {
			limit = *p.GPSRateLimit
		}
		if p.GPSRateWindow != nil {
			window = time.Duration(*p.GPSRateWindow)
		}
		opts = append(opts, partnersuc.WithGPSRateLimit(limit, window))
	}
	return partnersuc.New(pool, r, limiter, events, opts...)
}

// Events contains the settings of the server-sent events gateway.
type Events struct {
	// RetryHint is the reconnection delay which is suggested to the
	// clients of the events stream.
	RetryHint *settings.Duration `yaml:"retry-hint"`
	// Keepalive is the period of retry frames which keep idle streams
	// from being closed by the proxies.
	Keepalive *settings.Duration
}

// NewUseCase instantiates an events use case based on the settings in
// the `e` struct.
func (e Events) NewUseCase(b repo.Bus) (*eventuc.UseCase, error) {
	opts := make([]eventuc.Option, 0, 2)
	if e.RetryHint != nil {
		opts = append(opts, eventuc.WithRetryHint(time.Duration(*e.RetryHint)))
	}
	if e.Keepalive != nil {
		opts = append(opts, eventuc.WithKeepalive(time.Duration(*e.Keepalive)))
	}
	return eventuc.New(b, opts...)
}

// Load unmarshals the data byte slice and loads a Config instance
// assuming that it contains the Config settings. Extra items in the
// data will be ignored and missing items will take their default
// values. Afterwards, settings are overridden by the RDWEB_* variables
// of the environment. Thereafter, loaded Config will be validated and
// normalized in order to ensure that provided settings are acceptable.
func Load(data []byte) (*Config, error) {
	n := &yaml.Node{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if l := len(n.Content); l != 1 {
		return nil, fmt.Errorf(
			"found %d children nodes, instead of 1 mapping child", l,
		)
	}
	c := &Config{}
	if err := n.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding yaml node: %w", err)
	}
	if err := c.OverrideFromEnv(); err != nil {
		return nil, fmt.Errorf("overriding from environment: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// env lists the settings which may be overridden by environment
// variables. A nil field indicates that its variable was not set.
type env struct {
	DatabaseHost    *string        `envconfig:"DATABASE_HOST"`
	DatabasePort    *int           `envconfig:"DATABASE_PORT"`
	DatabaseName    *string        `envconfig:"DATABASE_NAME"`
	DatabasePassDir *string        `envconfig:"DATABASE_PASS_DIR"`
	RedisAddr       *string        `envconfig:"REDIS_ADDR"`
	RedisPassword   *string        `envconfig:"REDIS_PASSWORD"`
	BusKind         *string        `envconfig:"BUS_KIND"`
	AMQPURL         *string        `envconfig:"AMQP_URL"`
	HTTPAddr        *string        `envconfig:"HTTP_ADDR"`
	AuthSecret      *string        `envconfig:"AUTH_SECRET"`
	AuthIssuer      *string        `envconfig:"AUTH_ISSUER"`
	LogLevel        *string        `envconfig:"LOG_LEVEL"`
	LogFormat       *string        `envconfig:"LOG_FORMAT"`
	TracingEnabled  *bool          `envconfig:"TRACING_ENABLED"`
	TracingEndpoint *string        `envconfig:"TRACING_ENDPOINT"`
	LockTTL         *time.Duration `envconfig:"LOCK_TTL"`
	LockPolicy      *string        `envconfig:"LOCK_POLICY"`
	LimiterPolicy   *string        `envconfig:"LIMITER_POLICY"`
}

// OverrideFromEnv replaces the settings which have a corresponding
// RDWEB_* environment variable with the value of that variable.
func (c *Config) OverrideFromEnv() error {
	var e env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return err
	}
	override(&c.Database.Host, e.DatabaseHost)
	override(&c.Database.Port, e.DatabasePort)
	override(&c.Database.Name, e.DatabaseName)
	override(&c.Database.PassDir, e.DatabasePassDir)
	settings.Override(&c.Redis.Addr, e.RedisAddr)
	settings.Override(&c.Redis.Password, e.RedisPassword)
	settings.Override(&c.Bus.Kind, e.BusKind)
	settings.Override(&c.Bus.AMQPURL, e.AMQPURL)
	settings.Override(&c.Gin.Addr, e.HTTPAddr)
	override(&c.Auth.Secret, e.AuthSecret)
	override(&c.Auth.Issuer, e.AuthIssuer)
	settings.Override(&c.Logging.Level, e.LogLevel)
	settings.Override(&c.Logging.Format, e.LogFormat)
	settings.Override(&c.Tracing.Enabled, e.TracingEnabled)
	settings.Override(&c.Tracing.Endpoint, e.TracingEndpoint)
	if e.LockTTL != nil {
		d := settings.Duration(*e.LockTTL)
		c.Usecases.Assignment.LockTTL = &d
	}
	settings.Override(&c.Usecases.Assignment.LockPolicy, e.LockPolicy)
	settings.Override(&c.Usecases.Partners.LimiterPolicy, e.LimiterPolicy)
	return nil
}

func override[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It can also modify
// settings in order to normalize them or replace some zero values with
// their expected default values (if any).
func (c *Config) ValidateAndNormalize() error {
	if err := c.Vers.Validate(Major, Minor); err != nil {
		return fmt.Errorf(
			"expecting version v%d.%d: %w", Major, Minor, err,
		)
	}
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	settings.Default(&c.Redis.Addr, "localhost:6379")
	settings.Nil2Zero(&c.Redis.DB)
	settings.Nil2Zero(&c.Redis.PoolSize)
	if err := c.Bus.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating bus settings: %w", err)
	}
	settings.Nil2Zero(&c.Gin.Logger)
	settings.Nil2Zero(&c.Gin.Recovery)
	settings.Default(&c.Gin.Addr, ":8080")
	settings.Default(&c.Logging.Level, "info")
	settings.Default(&c.Logging.Format, "text")
	if _, err := c.Logging.NewHandler(io.Discard); err != nil {
		return fmt.Errorf("validating logging settings: %w", err)
	}
	settings.Nil2Zero(&c.Tracing.Enabled)
	settings.Default(&c.Tracing.Endpoint, "localhost:4317")
	settings.Default(&c.Tracing.ServiceName, "rdweb")
	return c.Usecases.ValidateAndNormalize()
}

// ValidateAndNormalize verifies the use cases settings. The lock TTL
// must be within its boundaries, which are 1s..30s by default.
func (u *Usecases) ValidateAndNormalize() error {
	a := &u.Assignment
	settings.Default(&a.MinLockTTL, settings.Duration(time.Second))
	settings.Default(&a.MaxLockTTL, settings.Duration(30*time.Second))
	if err := settings.VerifyRange(
		"lock-ttl", a.LockTTL, *a.MinLockTTL, *a.MaxLockTTL,
	); err != nil {
		return err
	}
	if a.LockPolicy != nil {
		if _, err := model.ParseLockPolicy(*a.LockPolicy); err != nil {
			return err
		}
	}
	p := &u.Partners
	if p.GPSRateLimit != nil && *p.GPSRateLimit <= 0 {
		return fmt.Errorf("gps rate limit must be positive")
	}
	if p.GPSRateWindow != nil && *p.GPSRateWindow < settings.Duration(time.Second) {
		return fmt.Errorf("gps rate window must be at least one second")
	}
	if p.LimiterPolicy != nil {
		if _, err := model.ParseLimitPolicy(*p.LimiterPolicy); err != nil {
			return err
		}
	}
	return nil
}

// Version returns the semantic version of this Config struct contents
// as written in its configuration file.
func (c *Config) Version() model.SemVer {
	return c.Vers.Versions.Config
}
