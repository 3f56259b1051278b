package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
)

//go:embed templates/kot.html
var templateFS embed.FS

var kotTemplate = template.Must(template.New("kot.html").Funcs(template.FuncMap{
	// replaced per Formatter in FallbackDocument
	"money": func(decimal.Decimal) string { return "" },
}).ParseFS(templateFS, "templates/kot.html"))

// FallbackDocument renders the receipt as an HTML page sized for 80mm paper
func (f *Formatter) FallbackDocument(r kotformat.Receipt) ([]byte, error) {
	tmpl, err := kotTemplate.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone template: %w", err)
	}
	tmpl.Funcs(template.FuncMap{"money": f.money})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}
