package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

// timestampLayouts covers the textual forms SQLite hands back.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

// sqlTime scans TIMESTAMP columns from either driver.
type sqlTime struct {
	t *time.Time
}

func (s sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
	case time.Time:
		*s.t = v.UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case int64:
		*s.t = time.Unix(v, 0).UTC()
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (s sqlTime) parse(v string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", v)
}

// sqlDate scans a DATE (PostgreSQL) or TEXT (SQLite) column into YYYY-MM-DD.
type sqlDate struct {
	s *string
}

func (d sqlDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.s = ""
	case time.Time:
		*d.s = v.Format(domain.DateLayout)
	case string:
		*d.s = trimDate(v)
	case []byte:
		*d.s = trimDate(string(v))
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func trimDate(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > len(domain.DateLayout) {
		return v[:len(domain.DateLayout)]
	}
	return v
}

// now is the clock used for created_at/updated_at.
var now = func() time.Time { return time.Now().UTC() }

// notFound maps sql.ErrNoRows to a domain not-found error.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
