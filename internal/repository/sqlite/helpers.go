package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"
)

func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullToString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullToTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func intPtrToNull(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullToIntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func int64PtrToNull(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullToInt64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

// Device port lists are stored as a JSON array in a TEXT column.
func encodePorts(ports []int) (string, error) {
	if ports == nil {
		ports = []int{}
	}
	data, err := json.Marshal(ports)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodePorts(data string) ([]int, error) {
	if data == "" {
		return []int{}, nil
	}
	var ports []int
	if err := json.Unmarshal([]byte(data), &ports); err != nil {
		return nil, err
	}
	return ports, nil
}
