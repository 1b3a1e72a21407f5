package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// connURL is a postgres:// URL split into the DatabaseConfig fields it can
// set. Query parameters other than sslmode are handed to libpq unchanged.
type connURL struct {
	host     string
	port     int
	user     string
	password string
	database string
	sslMode  string
	params   url.Values
}

func parseConnURL(raw string) (*connURL, error) {
	if raw == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(strings.Replace(raw, "postgresql://", "postgres://", 1))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" {
		return nil, fmt.Errorf("invalid database URL scheme %q (expected postgres or postgresql)", u.Scheme)
	}

	c := &connURL{
		host:     u.Hostname(),
		port:     defaultDBPort,
		database: strings.TrimPrefix(u.Path, "/"),
		sslMode:  "disable",
		params:   u.Query(),
	}
	if p := u.Port(); p != "" {
		if c.port, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("invalid port in database URL: %w", err)
		}
	}
	if u.User != nil {
		c.user = u.User.Username()
		c.password, _ = u.User.Password()
	}
	if mode := c.params.Get("sslmode"); mode != "" {
		c.sslMode = mode
	}
	c.params.Del("sslmode")
	return c, nil
}

// fillFrom copies URL values over fields still holding their development defaults
func (c *DatabaseConfig) fillFrom(u *connURL) {
	if c.Host == "" || c.Host == "localhost" {
		c.Host = u.host
	}
	if c.Port == 0 || c.Port == defaultDBPort {
		c.Port = u.port
	}
	if c.User == "" || c.User == defaultDBUser {
		c.User = u.user
	}
	if c.Password == "" || c.Password == defaultDBPassword {
		c.Password = u.password
	}
	if c.Database == "" || c.Database == defaultDBName {
		c.Database = u.database
	}
	if c.SSLMode == "" || c.SSLMode == "disable" {
		c.SSLMode = u.sslMode
	}
}

// DSN renders the libpq keyword connection string. A valid URL wins over
// the individual fields. Extra URL parameters follow in sorted order and the
// service tags its sessions with application_name unless the URL sets one.
func (c *DatabaseConfig) DSN() string {
	fields := *c
	var extra url.Values
	if c.URL != "" {
		if u, err := parseConnURL(c.URL); err == nil {
			fields = DatabaseConfig{
				Host:            u.host,
				Port:            u.port,
				User:            u.user,
				Password:        u.password,
				Database:        u.database,
				SSLMode:         u.sslMode,
				ApplicationName: c.ApplicationName,
			}
			extra = u.params
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSN(fields.Host), fields.Port, quoteDSN(fields.User), quoteDSN(fields.Password),
		quoteDSN(fields.Database), quoteDSN(fields.SSLMode))

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, quoteDSN(extra.Get(k)))
	}
	if fields.ApplicationName != "" && extra.Get("application_name") == "" {
		fmt.Fprintf(&b, " application_name=%s", quoteDSN(fields.ApplicationName))
	}
	return b.String()
}

// quoteDSN single-quotes values libpq would otherwise split or misread
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
