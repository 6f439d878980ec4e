package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// defaultSQLitePath is the default SQLite database file name.
const defaultSQLitePath = "proxyseed.db"

// BuildDSN builds a database DSN from structured database settings.
func BuildDSN(cfg DatabaseConfig) (string, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "postgres":
		if strings.TrimSpace(cfg.Host) == "" {
			return "", fmt.Errorf("database host is required")
		}
		port := cfg.Port
		if port <= 0 {
			port = 5432
		}
		sslMode := strings.TrimSpace(cfg.SSLMode)
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     fmt.Sprintf("%s:%d", strings.TrimSpace(cfg.Host), port),
			Path:     "/" + strings.TrimSpace(cfg.Name),
			RawQuery: "sslmode=" + url.QueryEscape(sslMode),
		}
		return u.String(), nil
	case "sqlite":
		return buildSQLiteDSN(cfg.Path), nil
	default:
		return "", fmt.Errorf("unsupported database type")
	}
}

// buildSQLiteDSN constructs a SQLite DSN with default parameters.
func buildSQLiteDSN(path string) string {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = defaultSQLitePath
	}
	if !strings.HasPrefix(strings.ToLower(dsn), "file:") {
		dsn = "file:" + dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join([]string{
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
	}, "&")
}

// DSNSummary is a log-safe description of a DSN.
type DSNSummary struct {
	Type        string
	Host        string
	Port        int
	User        string
	Name        string
	Path        string
	PasswordSet bool
}

// String renders the summary without credentials.
func (s DSNSummary) String() string {
	if s.Type == "sqlite" {
		return "sqlite path=" + s.Path
	}
	return fmt.Sprintf("postgres host=%s port=%d user=%s db=%s password_set=%t", s.Host, s.Port, s.User, s.Name, s.PasswordSet)
}

// SummarizeDSN parses a DSN into a log-safe summary.
func SummarizeDSN(dsn string) (DSNSummary, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return DSNSummary{}, fmt.Errorf("empty dsn")
	}

	lowered := strings.ToLower(trimmed)
	if strings.HasPrefix(lowered, "file:") {
		pathPart := trimmed[len("file:"):]
		pathPart, _, _ = strings.Cut(pathPart, "?")
		return DSNSummary{Type: "sqlite", Path: strings.TrimSpace(pathPart)}, nil
	}

	u, errParse := url.Parse(trimmed)
	if errParse != nil {
		return DSNSummary{}, fmt.Errorf("parse dsn: %w", errParse)
	}

	switch strings.ToLower(strings.TrimSpace(u.Scheme)) {
	case "postgres", "postgresql":
		port := 5432
		if rawPort := strings.TrimSpace(u.Port()); rawPort != "" {
			parsedPort, errPort := strconv.Atoi(rawPort)
			if errPort != nil {
				return DSNSummary{}, fmt.Errorf("parse port: %w", errPort)
			}
			port = parsedPort
		}

		username := ""
		passwordSet := false
		if u.User != nil {
			username = strings.TrimSpace(u.User.Username())
			_, passwordSet = u.User.Password()
		}

		return DSNSummary{
			Type:        "postgres",
			Host:        strings.TrimSpace(u.Hostname()),
			Port:        port,
			User:        username,
			Name:        strings.TrimSpace(strings.TrimPrefix(u.Path, "/")),
			PasswordSet: passwordSet,
		}, nil
	default:
		return DSNSummary{}, fmt.Errorf("unsupported dsn scheme")
	}
}
