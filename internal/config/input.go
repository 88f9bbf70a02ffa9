package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/rgehrsitz/satax/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var defaultRatesYAML []byte

// RateFile is the on-disk layout of a rate table.
type RateFile struct {
	Metadata RateMetadata           `yaml:"metadata" json:"metadata"`
	TaxYears map[int]domain.RateSet `yaml:"tax_years" json:"tax_years"`
}

// RateMetadata describes where a rate table came from.
type RateMetadata struct {
	Description string `yaml:"description" json:"description"`
	LastUpdated string `yaml:"last_updated" json:"last_updated"`
}

// RateTable is the read-only, tax-year-keyed set of rates. It is built once
// at start-up and handed to the calculator explicitly.
type RateTable struct {
	metadata RateMetadata
	rates    map[int]domain.RateSet
}

// GetRates returns the rates for the tax year starting in startYear.
func (t *RateTable) GetRates(startYear int) (domain.RateSet, error) {
	rs, ok := t.rates[startYear]
	if !ok {
		return domain.RateSet{}, &domain.UnconfiguredTaxYearError{StartYear: startYear}
	}
	return rs, nil
}

// Years returns the configured start years in ascending order.
func (t *RateTable) Years() []int {
	years := make([]int, 0, len(t.rates))
	for y := range t.rates {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Metadata returns the table description.
func (t *RateTable) Metadata() RateMetadata {
	return t.metadata
}

// InputParser handles parsing of rate configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a rate table from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*RateTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	table, err := ip.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return table, nil
}

// Parse decodes and validates a rate table
func (ip *InputParser) Parse(data []byte) (*RateTable, error) {
	var file RateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateRateFile(&file); err != nil {
		return nil, fmt.Errorf("rate configuration validation failed: %w", err)
	}

	rates := make(map[int]domain.RateSet, len(file.TaxYears))
	for year, rs := range file.TaxYears {
		rs.TaxYear = domain.NewTaxYear(year)
		rates[year] = rs
	}
	return &RateTable{metadata: file.Metadata, rates: rates}, nil
}

// ValidateRateFile validates every configured tax year
func (ip *InputParser) ValidateRateFile(file *RateFile) error {
	if len(file.TaxYears) == 0 {
		return fmt.Errorf("no tax years configured")
	}
	for year, rs := range file.TaxYears {
		if year < 1990 || year > 2100 {
			return fmt.Errorf("tax year %d is out of range", year)
		}
		if err := rs.Validate(); err != nil {
			return fmt.Errorf("tax year %s: %w", domain.NewTaxYear(year).Label(), err)
		}
	}
	return nil
}

// DefaultRateTable returns the embedded rate table.
func DefaultRateTable() (*RateTable, error) {
	return NewInputParser().Parse(defaultRatesYAML)
}

// LoadRateTable loads rates from path, or the embedded table when path is empty.
func LoadRateTable(path string) (*RateTable, error) {
	if path == "" {
		return DefaultRateTable()
	}
	return NewInputParser().LoadFromFile(path)
}
