package models

import (
	"encoding/json"
	"strconv"
	"time"
)

type SettingType string

const (
	SettingTypeString  SettingType = "string"
	SettingTypeNumber  SettingType = "number"
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeJSON    SettingType = "json"
)

type Setting struct {
	ID          string
	Key         string
	Value       string
	Type        SettingType
	Description *string
	IsPublic    bool
	IsEditable  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParsedValue decodes the stored string according to the setting type.
// Unparseable values fall back to the raw string.
func (s Setting) ParsedValue() any {
	switch s.Type {
	case SettingTypeNumber:
		if n, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return n
		}
	case SettingTypeBoolean:
		if b, err := strconv.ParseBool(s.Value); err == nil {
			return b
		}
	case SettingTypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s.Value), &v); err == nil {
			return v
		}
	}
	return s.Value
}
