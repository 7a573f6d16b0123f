package nullable

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Time - a nullable timestamp column
// implements: sql.Scanner and driver.Valuer by embedding sql.NullTime
// implements: json.Marshaler (RFC 3339 or null) and json.Unmarshaler
type Time struct {
	sql.NullTime
}

func TimeOf(t time.Time) Time {
	return Time{sql.NullTime{Time: t, Valid: true}}
}

func (n Time) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time.UTC().Format(time.RFC3339))
}

func (n *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Time{}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	*n = TimeOf(t)
	return nil
}

func (n Time) IsNil() bool {
	return !n.Valid
}
