package aws

import (
	"fmt"
	"strings"
)

// Column is a field of a cost and usage report.
type Column struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// HeaderName is the CSV header of the column, e.g. lineItem/UnblendedCost.
func (c Column) HeaderName() string {
	return c.Category + "/" + c.Name
}

// HiveName is the identifier the query layer exposes the column as.
func (c Column) HiveName() string {
	name := fmt.Sprintf("%s_%s", c.Category, c.Name)
	// hive does not allow ':' or '.' in identifiers
	name = strings.Replace(name, ":", "_", -1)
	name = strings.Replace(name, ".", "_", -1)
	return strings.ToLower(name)
}

// Columns are a set of usage report columns.
type Columns []Column

// Headers returns the CSV header row.
func (cols Columns) Headers() []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.HeaderName()
	}
	return out
}

// Index returns the position of the column with the given header name, or -1.
func (cols Columns) Index(header string) int {
	for i, c := range cols {
		if c.HeaderName() == header {
			return i
		}
	}
	return -1
}

// Report columns written by the generator.
var (
	ColLineItemID          = Column{"identity", "LineItemId"}
	ColTimeInterval        = Column{"identity", "TimeInterval"}
	ColBillingPeriodStart  = Column{"bill", "BillingPeriodStartDate"}
	ColBillingPeriodEnd    = Column{"bill", "BillingPeriodEndDate"}
	ColPayerAccountID      = Column{"bill", "PayerAccountId"}
	ColUsageAccountID      = Column{"lineItem", "UsageAccountId"}
	ColLineItemType        = Column{"lineItem", "LineItemType"}
	ColUsageStartDate      = Column{"lineItem", "UsageStartDate"}
	ColUsageEndDate        = Column{"lineItem", "UsageEndDate"}
	ColProductCode         = Column{"lineItem", "ProductCode"}
	ColUsageType           = Column{"lineItem", "UsageType"}
	ColResourceID          = Column{"lineItem", "ResourceId"}
	ColUsageAmount         = Column{"lineItem", "UsageAmount"}
	ColCurrencyCode        = Column{"lineItem", "CurrencyCode"}
	ColUnblendedRate       = Column{"lineItem", "UnblendedRate"}
	ColUnblendedCost       = Column{"lineItem", "UnblendedCost"}
	ColBlendedRate         = Column{"lineItem", "BlendedRate"}
	ColBlendedCost         = Column{"lineItem", "BlendedCost"}
	ColProductName         = Column{"product", "ProductName"}
	ColRegion              = Column{"product", "region"}
	ColPricingUnit         = Column{"pricing", "unit"}
	ColResourceTagScenario = Column{"resourceTags", "user:validator-scenario"}
)

// ReportColumns is the fixed column order of generated reports.
var ReportColumns = Columns{
	ColLineItemID,
	ColTimeInterval,
	ColBillingPeriodStart,
	ColBillingPeriodEnd,
	ColPayerAccountID,
	ColUsageAccountID,
	ColLineItemType,
	ColUsageStartDate,
	ColUsageEndDate,
	ColProductCode,
	ColUsageType,
	ColResourceID,
	ColUsageAmount,
	ColCurrencyCode,
	ColUnblendedRate,
	ColUnblendedCost,
	ColBlendedRate,
	ColBlendedCost,
	ColProductName,
	ColRegion,
	ColPricingUnit,
	ColResourceTagScenario,
}
