package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// buildInvoiceFilterClause constructs the shared invoice predicates: not
// voided and, when given, one of the document types.
func buildInvoiceFilterClause(alias string, documentTypes []string, startIndex int) (string, []interface{}) {
	alias = normalizeAlias(alias)
	clauses := []string{fmt.Sprintf("%svoided = false", alias)}
	var args []interface{}

	types := make([]string, 0, len(documentTypes))
	for _, t := range documentTypes {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	if len(types) > 0 {
		clauses = append(clauses, fmt.Sprintf("UPPER(TRIM(%sdocument_type)) = ANY($%d)", alias, startIndex))
		args = append(args, pq.Array(types))
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

// clientSearchPattern turns free text into an ILIKE pattern, escaping wildcards.
func clientSearchPattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(search)) + "%"
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
