package capture

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// operationFromQuery returns the name of the first named operation in a
// GraphQL document. Anonymous operations and unparsable documents yield "".
func operationFromQuery(query string) string {
	if query == "" {
		return ""
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: query})
	if err != nil || doc == nil {
		return ""
	}
	for _, op := range doc.Operations {
		if op.Name != "" {
			return op.Name
		}
	}
	return ""
}
