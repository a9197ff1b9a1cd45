package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
)

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToStringPtr keeps the NULL / empty distinction of a column
func nullToStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// stringPtrToNull stores nil as NULL and any other value, empty included, as text
func stringPtrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// int64ToNull stores 0 as NULL
func int64ToNull(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

// marshalToNull marshals a slice to JSON, storing empty slices as NULL
func marshalToNull(v []string) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "failed to marshal JSON field")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalStrings reads a JSON string list from a nullable column
func unmarshalStrings(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal JSON field")
	}
	return out, nil
}
