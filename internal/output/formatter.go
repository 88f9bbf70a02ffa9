package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/satax/internal/domain"
)

// Formatter renders a liability breakdown.
type Formatter interface {
	Name() string
	Format(result *domain.TaxLiabilityResult) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc struct {
	ID string
	F  func(result *domain.TaxLiabilityResult) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(result *domain.TaxLiabilityResult) ([]byte, error) {
	return f.F(result)
}

var formatters = map[string]Formatter{
	"console":      ConsoleFormatter{},
	"console-lite": SummaryFormatter{},
	"json":         JSONFormatter{},
	"csv":          CSVFormatter{},
	"html":         HTMLFormatter{},
}

var aliases = map[string]string{
	"text":    "console",
	"verbose": "console",
	"summary": "console-lite",
	"lite":    "console-lite",
}

// GetFormatterByName returns the formatter registered under name or an alias.
func GetFormatterByName(name string) (Formatter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if f, ok := formatters[key]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unsupported format: %s (available: %s)", name, strings.Join(FormatterNames(), ", "))
}

// FormatterNames lists the registered formatter names.
func FormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFormatted renders result and writes it to a timestamped file in the
// working directory, returning the file name.
func WriteFormatted(f Formatter, result *domain.TaxLiabilityResult, ext string) (string, error) {
	data, err := f.Format(result)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("tax_report_%s_%s.%s", result.TaxYear.APIFormat(), time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
