package scenario

import "github.com/shopspring/decimal"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tolerance(f float64) *float64 {
	return &f
}

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	c, err := NewCatalog(builtinScenarios()...)
	if err != nil {
		panic(err)
	}
	return c
}

func builtinScenarios() []Scenario {
	return []Scenario{
		{
			Name:          "basic_compute",
			Description:   "two instances and five volumes over one day",
			DurationHours: 24,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "compute",
					ProductCode:  "AmazonEC2",
					UsageType:    "BoxUsage:m5.large",
					LineItemType: LineItemUsage,
					Unit:         "Hrs",
					Region:       "us-east-1",
					Count:        2,
					HourlyRate:   d("12.50"),
				},
				{
					Type:         "storage",
					ProductCode:  "AmazonEBS",
					UsageType:    "EBS:VolumeUsage.gp3",
					LineItemType: LineItemUsage,
					Unit:         "GB-Mo",
					Region:       "us-east-1",
					Count:        5,
					HourlyRate:   d("4.00"),
					ActiveHours:  20,
				},
			},
			ExpectedTotalCost: d("1000.00"),
			ExpectedBreakdown: map[string]decimal.Decimal{
				"compute": d("600.00"),
				"storage": d("400.00"),
			},
		},
		{
			Name:          "zero_cost",
			Description:   "free tier requests that bill nothing",
			DurationHours: 24,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "requests",
					ProductCode:  "AmazonS3",
					UsageType:    "Requests-Tier1",
					LineItemType: LineItemUsage,
					Unit:         "Requests",
					Region:       "us-east-1",
					Count:        3,
					HourlyRate:   decimal.Zero,
				},
			},
			ExpectedTotalCost: decimal.Zero,
			ExpectedBreakdown: map[string]decimal.Decimal{
				"requests": decimal.Zero,
			},
		},
		{
			Name:          "sub_cent",
			Description:   "rates below one cent that must not round away",
			DurationHours: 24,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "functions",
					ProductCode:  "AWSLambda",
					UsageType:    "Request",
					LineItemType: LineItemUsage,
					Unit:         "Requests",
					Region:       "us-east-1",
					Count:        10,
					HourlyRate:   d("0.0000002"),
				},
				{
					Type:         "transfer",
					ProductCode:  "AWSDataTransfer",
					UsageType:    "DataTransfer-Out-Bytes",
					LineItemType: LineItemUsage,
					Unit:         "GB",
					Region:       "us-east-1",
					Count:        4,
					HourlyRate:   d("0.0045"),
				},
			},
			ExpectedTotalCost: d("0.432048"),
			ExpectedBreakdown: map[string]decimal.Decimal{
				"functions": d("0.000048"),
				"transfer":  d("0.432"),
			},
			Tolerance: tolerance(0.01),
		},
		{
			Name:          "credits",
			Description:   "usage offset by a negative credit",
			DurationHours: 24,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "compute",
					ProductCode:  "AmazonEC2",
					UsageType:    "BoxUsage:t3.medium",
					LineItemType: LineItemUsage,
					Unit:         "Hrs",
					Region:       "us-west-2",
					Count:        1,
					HourlyRate:   d("10.00"),
				},
				{
					Type:         "credit",
					ProductCode:  "AWSCredits",
					UsageType:    "PromotionalCredit",
					LineItemType: LineItemCredit,
					Unit:         "Hrs",
					Region:       "us-west-2",
					Count:        1,
					HourlyRate:   d("-2.50"),
				},
			},
			ExpectedTotalCost: d("180.00"),
			ExpectedBreakdown: map[string]decimal.Decimal{
				"compute": d("240.00"),
				"credit":  d("-60.00"),
			},
		},
		{
			Name:          "large_values",
			Description:   "totals beyond the 32-bit integer range",
			DurationHours: 24,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "reserved",
					ProductCode:  "AmazonRedshift",
					UsageType:    "Node:dc2.8xlarge",
					LineItemType: LineItemUsage,
					Unit:         "Hrs",
					Region:       "eu-west-1",
					Count:        100,
					HourlyRate:   d("1000000.00"),
				},
			},
			ExpectedTotalCost: d("2400000000.00"),
			ExpectedBreakdown: map[string]decimal.Decimal{
				"reserved": d("2400000000.00"),
			},
		},
		{
			Name:          "multi_day",
			Description:   "three days of compute with partially active storage",
			DurationHours: 72,
			Currency:      DefaultCurrency,
			Resources: []Resource{
				{
					Type:         "compute",
					ProductCode:  "AmazonEC2",
					UsageType:    "BoxUsage:m5.large",
					LineItemType: LineItemUsage,
					Unit:         "Hrs",
					Region:       "us-east-1",
					Count:        3,
					HourlyRate:   d("0.096"),
				},
				{
					Type:         "storage",
					ProductCode:  "AmazonEBS",
					UsageType:    "EBS:VolumeUsage.gp2",
					LineItemType: LineItemUsage,
					Unit:         "GB-Mo",
					Region:       "us-east-1",
					Count:        2,
					HourlyRate:   d("0.0137"),
					ActiveHours:  48,
				},
			},
			ExpectedTotalCost: d("22.0512"),
			ExpectedBreakdown: map[string]decimal.Decimal{
				"compute": d("20.736"),
				"storage": d("1.3152"),
			},
		},
	}
}
