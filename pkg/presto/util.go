package presto

import (
	"fmt"
	"strings"
)

func FullyQualifiedTableName(catalog, schema, tableName string) string {
	return fmt.Sprintf("%s.%s.%s", catalog, schema, tableName)
}

// QuoteString renders s as a SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

// QuoteIdentifier renders s as a quoted identifier.
func QuoteIdentifier(s string) string {
	return `"` + strings.Replace(s, `"`, `""`, -1) + `"`
}
