package generate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
)

const usageTimeFormat = "2006-01-02T15:04:05Z"

// LineItem is one hourly usage record of one resource.
type LineItem struct {
	ID           string
	AccountID    string
	ResourceType string
	ResourceID   string
	ProductCode  string
	UsageType    string
	LineItemType string
	Region       string
	Unit         string
	Currency     string
	Scenario     string
	Start        time.Time
	End          time.Time
	UsageAmount  decimal.Decimal
	Rate         decimal.Decimal
	Cost         decimal.Decimal
	Period       aws.BillingPeriod
}

// Row renders the line item in the order of cols.
func (li LineItem) Row(cols aws.Columns) []string {
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = li.value(c)
	}
	return row
}

func (li LineItem) value(c aws.Column) string {
	switch c {
	case aws.ColLineItemID:
		return li.ID
	case aws.ColTimeInterval:
		return li.Start.Format(usageTimeFormat) + "/" + li.End.Format(usageTimeFormat)
	case aws.ColBillingPeriodStart:
		return li.Period.Start.Format(usageTimeFormat)
	case aws.ColBillingPeriodEnd:
		return li.Period.End.Format(usageTimeFormat)
	case aws.ColPayerAccountID, aws.ColUsageAccountID:
		return li.AccountID
	case aws.ColLineItemType:
		return li.LineItemType
	case aws.ColUsageStartDate:
		return li.Start.Format(usageTimeFormat)
	case aws.ColUsageEndDate:
		return li.End.Format(usageTimeFormat)
	case aws.ColProductCode:
		return li.ProductCode
	case aws.ColUsageType:
		return li.UsageType
	case aws.ColResourceID:
		return li.ResourceID
	case aws.ColUsageAmount:
		return li.UsageAmount.String()
	case aws.ColCurrencyCode:
		return li.Currency
	case aws.ColUnblendedRate, aws.ColBlendedRate:
		return li.Rate.String()
	case aws.ColUnblendedCost, aws.ColBlendedCost:
		return li.Cost.String()
	case aws.ColProductName:
		return li.ProductCode
	case aws.ColRegion:
		return li.Region
	case aws.ColPricingUnit:
		return li.Unit
	case aws.ColResourceTagScenario:
		return li.Scenario
	}
	return ""
}
