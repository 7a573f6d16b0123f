package nullable

import (
	"database/sql"
	"encoding/json"
)

// String - a nullable text column
// implements: sql.Scanner and driver.Valuer by embedding sql.NullString
// implements: json.Marshaler and json.Unmarshaler
type String struct {
	sql.NullString
}

// StringOf maps "" to NULL
func StringOf(s string) String {
	return String{sql.NullString{String: s, Valid: s != ""}}
}

func (n String) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

func (n *String) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = String{}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*n = String{sql.NullString{String: str, Valid: true}}
	return nil
}

// ForceValue returns "" for NULL
func (n String) ForceValue() string {
	if !n.Valid {
		return ""
	}
	return n.String
}
