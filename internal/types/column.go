package types

import "strings"

var VALID_COLUMN_TYPES = []ColumnType{
	ColumnTypeString, ColumnTypeInt, ColumnTypeFloat, ColumnTypeBool,
	ColumnTypeDate, ColumnTypePhone, ColumnTypeEmail, ColumnTypeUrl, ColumnTypeCurrency,
}

// ColumnType is a rendering/typing hint for a column. The view engine never
// validates values against it.
type ColumnType string

const (
	ColumnTypeString   ColumnType = "String"
	ColumnTypeInt      ColumnType = "Int"
	ColumnTypeFloat    ColumnType = "Float"
	ColumnTypeBool     ColumnType = "Bool"
	ColumnTypeDate     ColumnType = "Date"
	ColumnTypePhone    ColumnType = "Phone"
	ColumnTypeEmail    ColumnType = "Email"
	ColumnTypeUrl      ColumnType = "Url"
	ColumnTypeCurrency ColumnType = "Currency"
)

// ParseColumnType matches case-insensitively and falls back to String, so a
// malformed schema still produces a usable column.
func ParseColumnType(s string) ColumnType {
	for _, t := range VALID_COLUMN_TYPES {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "textarea", "picklist", "id", "reference":
		return ColumnTypeString
	case "number", "double", "percent":
		return ColumnTypeFloat
	case "integer":
		return ColumnTypeInt
	case "boolean", "checkbox":
		return ColumnTypeBool
	case "datetime", "date-local", "time":
		return ColumnTypeDate
	}
	return ColumnTypeString
}

func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeInt || t == ColumnTypeFloat || t == ColumnTypeCurrency
}

func (t *ColumnType) UnmarshalText(text []byte) error {
	*t = ParseColumnType(string(text))
	return nil
}
