package db

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/theLastOfCats/contentgate/internal/model"
)

//go:embed schema.sql.tmpl
var schemaTemplate string

var schemaTmpl = template.Must(template.New("schema").Parse(schemaTemplate))

func renderSchema(d Dialect) (string, error) {
	t := d.types()
	data := struct {
		ID, Text, Bool string
		InlineIndexes  bool
		Groups         []model.Group
	}{t.ID, t.Text, t.Bool, t.InlineIndexes, model.Groups}

	var buf bytes.Buffer
	if err := schemaTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
