package scenario

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

const (
	LineItemUsage  = "Usage"
	LineItemCredit = "Credit"
	LineItemTax    = "Tax"

	DefaultCurrency = "USD"
)

// Scenario is a named synthetic workload with known cost totals.
type Scenario struct {
	Name              string
	Description       string
	DurationHours     int
	Currency          string
	Resources         []Resource
	ExpectedTotalCost decimal.Decimal
	// ExpectedBreakdown is keyed by resource type.
	ExpectedBreakdown map[string]decimal.Decimal
	// Tolerance overrides the run tolerance when set.
	Tolerance *float64
}

// Resource describes Count identical resources billed at HourlyRate for
// ActiveHours of the scenario window.
type Resource struct {
	Type         string
	ProductCode  string
	UsageType    string
	LineItemType string
	Unit         string
	Region       string
	Count        int
	HourlyRate   decimal.Decimal
	ActiveHours  int
}

// Hours returns the number of hourly line items each instance produces.
func (r Resource) Hours(durationHours int) int {
	if r.ActiveHours == 0 {
		return durationHours
	}
	return r.ActiveHours
}

// Cost returns the exact total cost of the resource over the scenario.
func (r Resource) Cost(durationHours int) decimal.Decimal {
	return r.HourlyRate.Mul(decimal.NewFromInt(int64(r.Count * r.Hours(durationHours))))
}

// ToleranceOr returns the scenario tolerance, or def when none is set.
func (s Scenario) ToleranceOr(def float64) float64 {
	if s.Tolerance != nil {
		return *s.Tolerance
	}
	return def
}

// RecordCount is the number of line items the scenario produces.
func (s Scenario) RecordCount() int {
	n := 0
	for _, r := range s.Resources {
		n += r.Count * r.Hours(s.DurationHours)
	}
	return n
}

// ComputedTotal sums the exact cost of every resource.
func (s Scenario) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Resources {
		total = total.Add(r.Cost(s.DurationHours))
	}
	return total
}

// ProductCodes maps each resource type to the product code it bills under.
func (s Scenario) ProductCodes() map[string]string {
	codes := make(map[string]string, len(s.Resources))
	for _, r := range s.Resources {
		codes[r.Type] = r.ProductCode
	}
	return codes
}

// Clone returns a deep copy so catalog entries cannot be mutated by callers.
func (s Scenario) Clone() Scenario {
	out := s
	out.Resources = append([]Resource(nil), s.Resources...)
	if s.ExpectedBreakdown != nil {
		out.ExpectedBreakdown = make(map[string]decimal.Decimal, len(s.ExpectedBreakdown))
		for k, v := range s.ExpectedBreakdown {
			out.ExpectedBreakdown[k] = v
		}
	}
	if s.Tolerance != nil {
		tol := *s.Tolerance
		out.Tolerance = &tol
	}
	return out
}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// check verifies the declared expectations agree with the resources, so
// generator output and expectations cannot silently drift apart.
func (s Scenario) check() error {
	if !namePattern.MatchString(s.Name) {
		return fmt.Errorf("scenario name %q must match %s", s.Name, namePattern)
	}
	if len(s.Resources) == 0 {
		return fmt.Errorf("scenario %s: no resources", s.Name)
	}
	if s.DurationHours <= 0 {
		return fmt.Errorf("scenario %s: duration must be positive", s.Name)
	}
	seenType := make(map[string]bool)
	seenCode := make(map[string]string)
	for _, r := range s.Resources {
		if seenType[r.Type] {
			return fmt.Errorf("scenario %s: duplicate resource type %q", s.Name, r.Type)
		}
		seenType[r.Type] = true
		if other, ok := seenCode[r.ProductCode]; ok {
			return fmt.Errorf("scenario %s: resource types %q and %q share product code %q", s.Name, other, r.Type, r.ProductCode)
		}
		seenCode[r.ProductCode] = r.Type
		if r.ActiveHours < 0 || r.ActiveHours > s.DurationHours {
			return fmt.Errorf("scenario %s: resource %q active hours %d outside [0, %d]", s.Name, r.Type, r.ActiveHours, s.DurationHours)
		}
		switch r.LineItemType {
		case LineItemUsage, LineItemCredit, LineItemTax:
		default:
			return fmt.Errorf("scenario %s: resource %q has unknown line item type %q", s.Name, r.Type, r.LineItemType)
		}
		if r.LineItemType == LineItemCredit && r.HourlyRate.IsPositive() {
			return fmt.Errorf("scenario %s: credit %q must have a non-positive rate", s.Name, r.Type)
		}
	}
	if computed := s.ComputedTotal(); !computed.Equal(s.ExpectedTotalCost) {
		return fmt.Errorf("scenario %s: expected total %s does not match resources total %s", s.Name, s.ExpectedTotalCost, computed)
	}
	if len(s.ExpectedBreakdown) > 0 {
		for _, r := range s.Resources {
			want, ok := s.ExpectedBreakdown[r.Type]
			if !ok {
				return fmt.Errorf("scenario %s: breakdown missing resource type %q", s.Name, r.Type)
			}
			if got := r.Cost(s.DurationHours); !got.Equal(want) {
				return fmt.Errorf("scenario %s: breakdown for %q is %s, resources total %s", s.Name, r.Type, want, got)
			}
		}
		if len(s.ExpectedBreakdown) != len(s.Resources) {
			return fmt.Errorf("scenario %s: breakdown names resource types that do not exist", s.Name)
		}
	}
	return nil
}
