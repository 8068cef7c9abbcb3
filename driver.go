package tabula

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DriverKind is the kind of database server
type DriverKind int

const (
	MySQL DriverKind = iota + 1
	SQLite
	PgSQL
)

func (k DriverKind) String() string {
	switch k {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case PgSQL:
		return "pgsql"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// ParseDriverKind returns the DriverKind for a driver name
func ParseDriverKind(name string) (DriverKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "pgsql", "postgres", "postgresql":
		return PgSQL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}

type driver struct {
	// name is the database/sql driver name
	name        string
	placeholder placeholderStyle
	dsn         func(s Server) (string, error)
}

var drivers = map[DriverKind]driver{
	MySQL: {
		name:        "mysql",
		placeholder: placeholderQuestion,
		dsn:         mysqlDSN,
	},
	SQLite: {
		name:        "sqlite3",
		placeholder: placeholderQuestion,
		dsn:         sqliteDSN,
	},
	PgSQL: {
		name:        "postgres",
		placeholder: placeholderDollar,
		dsn:         pgsqlDSN,
	},
}

func lookupDriver(k DriverKind) (driver, error) {
	if d, ok := drivers[k]; ok {
		return d, nil
	}
	return driver{}, fmt.Errorf("%w: %d", ErrUnknownDriver, int(k))
}

const defaultHost = "localhost"

// Server describes the database server to connect to
type Server struct {
	Driver   DriverKind
	Host     string
	Port     int
	Name     string
	Username string
	Password string
}

// DSN builds the data source name for the server's driver
func (s Server) DSN() (string, error) {
	d, err := lookupDriver(s.Driver)
	if err != nil {
		return "", err
	}
	return d.dsn(s)
}

func (s Server) host() string {
	host := s.Host
	if host == "" {
		host = defaultHost
	}
	if s.Port > 0 {
		return net.JoinHostPort(host, strconv.Itoa(s.Port))
	}
	return host
}

func mysqlDSN(s Server) (string, error) {
	if s.Name == "" {
		return "", fmt.Errorf("database name must be specified for driver %q", s.Driver.String())
	}
	cfg := mysql.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = s.host()
	cfg.DBName = s.Name
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN(), nil
}

func pgsqlDSN(s Server) (string, error) {
	if s.Name == "" {
		return "", fmt.Errorf("database name must be specified for driver %q", s.Driver.String())
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     s.host(),
		Path:     "/" + s.Name,
		RawQuery: "sslmode=disable",
	}
	if s.Username != "" {
		if s.Password != "" {
			u.User = url.UserPassword(s.Username, s.Password)
		} else {
			u.User = url.User(s.Username)
		}
	}
	return u.String(), nil
}

func sqliteDSN(s Server) (string, error) {
	if s.Name == "" {
		return "", fmt.Errorf("database name must be specified for driver %q", s.Driver.String())
	}
	return s.Name, nil
}

// Open connects to the server and returns an Engine that owns the connection
//
// the underlying pool is restricted to a single open connection - so that transactions (and SQLite in-memory
// databases) see one consistent session
//
// any failure is returned as a *ConnectionError
func Open(ctx context.Context, server Server, options ...any) (*Engine, error) {
	d, err := lookupDriver(server.Driver)
	if err != nil {
		return nil, &ConnectionError{Driver: server.Driver, Err: err}
	}
	if !slices.Contains(sql.Drivers(), d.name) {
		return nil, &ConnectionError{Driver: server.Driver, Err: fmt.Errorf("%w: %q", ErrDriverUnavailable, d.name)}
	}
	dsn, err := d.dsn(server)
	if err != nil {
		return nil, &ConnectionError{Driver: server.Driver, Err: err}
	}
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, &ConnectionError{Driver: server.Driver, Err: err}
	}
	db.SetMaxOpenConns(1)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Driver: server.Driver, Err: err}
	}
	e, err := NewEngine(db, append([]any{server.Driver}, options...)...)
	if err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Driver: server.Driver, Err: err}
	}
	return e, nil
}
