package repositories

import (
	"database/sql"
	"encoding/json"
)

// encodeList stores a string list as a JSON array, empty lists as NULL
func encodeList(values []string) (*string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func decodeList(value sql.NullString) []string {
	if !value.Valid || value.String == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(value.String), &out); err != nil {
		return []string{}
	}
	return out
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(value sql.NullString, v any) error {
	if !value.Valid || value.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(value.String), v)
}
