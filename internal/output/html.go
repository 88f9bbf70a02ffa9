package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/rgehrsitz/satax/internal/domain"
)

// HTMLFormatter produces a printable HTML calculation.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/calculation.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("calculation").Funcs(template.FuncMap{
	"curr":   FormatCurrency,
	"class2": Class2Status,
	"yesno":  yesNo,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(r *domain.TaxLiabilityResult) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		*domain.TaxLiabilityResult
		Label string
		Notes []string
	}{r, r.TaxYear.Label(), DefaultNotes}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
