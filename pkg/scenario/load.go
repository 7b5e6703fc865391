package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Scenarios []scenarioDoc     `yaml:"scenarios" validate:"dive"`
	Queries   map[string]string `yaml:"queries"`
}

type scenarioDoc struct {
	Name              string            `yaml:"name" validate:"required"`
	Description       string            `yaml:"description"`
	DurationHours     int               `yaml:"durationHours" validate:"required,gt=0,lte=744"`
	Currency          string            `yaml:"currency" validate:"omitempty,iso4217"`
	Tolerance         *float64          `yaml:"tolerance" validate:"omitempty,gte=0,lt=1"`
	ExpectedTotalCost string            `yaml:"expectedTotalCost" validate:"required,numeric"`
	ExpectedBreakdown map[string]string `yaml:"expectedBreakdown" validate:"omitempty,dive,keys,required,endkeys,numeric"`
	Resources         []resourceDoc     `yaml:"resources" validate:"required,min=1,dive"`
}

type resourceDoc struct {
	Type         string `yaml:"type" validate:"required"`
	ProductCode  string `yaml:"productCode" validate:"required"`
	UsageType    string `yaml:"usageType" validate:"required"`
	LineItemType string `yaml:"lineItemType" validate:"omitempty,oneof=Usage Credit Tax"`
	Unit         string `yaml:"unit"`
	Region       string `yaml:"region"`
	Count        int    `yaml:"count" validate:"required,gt=0"`
	HourlyRate   string `yaml:"hourlyRate" validate:"required,numeric"`
	ActiveHours  int    `yaml:"activeHours" validate:"gte=0"`
}

var validate = validator.New()

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read catalog %s: %v", path, err)
	}
	c, err := Load(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %v", path, err)
	}
	return c, nil
}

// Load decodes a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f catalogFile
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, err
	}
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	scenarios := make([]Scenario, 0, len(f.Scenarios))
	for _, doc := range f.Scenarios {
		s, err := doc.toScenario()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	c, err := NewCatalog(scenarios...)
	if err != nil {
		return nil, err
	}
	c.queries = make(map[string]string, len(f.Queries))
	for k, v := range f.Queries {
		c.queries[k] = v
	}
	return c, nil
}

func (doc scenarioDoc) toScenario() (Scenario, error) {
	total, err := decimal.NewFromString(doc.ExpectedTotalCost)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: expectedTotalCost: %v", doc.Name, err)
	}
	s := Scenario{
		Name:              doc.Name,
		Description:       doc.Description,
		DurationHours:     doc.DurationHours,
		Currency:          doc.Currency,
		ExpectedTotalCost: total,
		Tolerance:         doc.Tolerance,
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if len(doc.ExpectedBreakdown) > 0 {
		s.ExpectedBreakdown = make(map[string]decimal.Decimal, len(doc.ExpectedBreakdown))
		for typ, v := range doc.ExpectedBreakdown {
			amount, err := decimal.NewFromString(v)
			if err != nil {
				return Scenario{}, fmt.Errorf("scenario %s: expectedBreakdown[%s]: %v", doc.Name, typ, err)
			}
			s.ExpectedBreakdown[typ] = amount
		}
	}
	for _, r := range doc.Resources {
		rate, err := decimal.NewFromString(r.HourlyRate)
		if err != nil {
			return Scenario{}, fmt.Errorf("scenario %s: resource %s hourlyRate: %v", doc.Name, r.Type, err)
		}
		lineItemType := r.LineItemType
		if lineItemType == "" {
			lineItemType = LineItemUsage
		}
		s.Resources = append(s.Resources, Resource{
			Type:         r.Type,
			ProductCode:  r.ProductCode,
			UsageType:    r.UsageType,
			LineItemType: lineItemType,
			Unit:         r.Unit,
			Region:       r.Region,
			Count:        r.Count,
			HourlyRate:   rate,
			ActiveHours:  r.ActiveHours,
		})
	}
	return s, nil
}
