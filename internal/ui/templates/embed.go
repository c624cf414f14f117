// Package templates renders the server-side HTML pages of the web UI.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

//go:embed *.tmpl
var files embed.FS

var funcs = template.FuncMap{
	"toJSON": func(v any) template.JS {
		data, err := json.Marshal(v)
		if err != nil {
			return template.JS("null")
		}
		return template.JS(data)
	},
	"cell": func(t *types.Ticket, c types.Column) string {
		return types.Deref(t.Cell(c))
	},
	"header": func(c types.Column) string {
		return strings.ReplaceAll(c.Header(), "_", " ")
	},
	"editable": func(c types.Column) bool {
		return c.IsEditable()
	},
	"isDate": func(c types.Column) bool {
		return c.IsDate()
	},
	"selected": func(current, option string) bool {
		if current == "" {
			return option == types.FilterAll
		}
		return current == option
	},
}

// Parse parses the named page together with the shared layout.
func Parse(name string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).ParseFS(files, "layout.tmpl", name)
}

func render(name string, data any) ([]byte, error) {
	tmpl, err := Parse(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
