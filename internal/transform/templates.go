package transform

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ScenarioTransform
}

// Apply runs the template's transforms against base and names the result
// after the template.
func (t Template) Apply(base Scenario) (Scenario, error) {
	s, err := ApplyTransforms(base, t.Transforms)
	if err != nil {
		return Scenario{}, err
	}
	s.Name = t.Name
	return s, nil
}

// NewTemplateRegistry creates an empty registry.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names in sorted order.
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates creates a registry with the common what-if questions
// a sole trader asks about a year's figures.
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "voluntary_class2",
		Description: "Opt in to voluntary Class 2 NI",
		Transforms:  []ScenarioTransform{&SetVoluntaryClass2{Enabled: true}},
	})
	registry.Register(Template{
		Name:        "previous_year",
		Description: "Same profit in the previous tax year",
		Transforms:  []ScenarioTransform{&ShiftTaxYear{Years: -1}},
	})
	registry.Register(Template{
		Name:        "next_year",
		Description: "Same profit in the next tax year",
		Transforms:  []ScenarioTransform{&ShiftTaxYear{Years: 1}},
	})
	registry.Register(Template{
		Name:        "profit_up_10pct",
		Description: "Net profit 10% higher",
		Transforms:  []ScenarioTransform{&ScaleProfit{Percent: decimal.NewFromInt(10)}},
	})
	registry.Register(Template{
		Name:        "profit_down_10pct",
		Description: "Net profit 10% lower",
		Transforms:  []ScenarioTransform{&ScaleProfit{Percent: decimal.NewFromInt(-10)}},
	})
	registry.Register(Template{
		Name:        "extra_1k_expenses",
		Description: "Claim another 1,000 of allowable expenses",
		Transforms:  []ScenarioTransform{&AdjustProfit{Amount: decimal.NewFromInt(-1000)}},
	})

	return registry
}

// ParseTemplateList splits a comma-separated list of template names.
func ParseTemplateList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// GetTemplateHelp lists the registered templates with their descriptions.
func GetTemplateHelp(registry *TemplateRegistry) string {
	var sb strings.Builder
	sb.WriteString("Available templates:\n")
	for _, name := range registry.List() {
		t, _ := registry.Get(name)
		sb.WriteString("  " + name + strings.Repeat(" ", max(20-len(name), 1)) + t.Description + "\n")
	}
	return sb.String()
}
