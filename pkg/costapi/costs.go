package costapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

const (
	queryDateFormat = "2006-01-02"
	defaultProvider = "aws"
)

type amount struct {
	Value json.Number `json:"value"`
	Units string      `json:"units"`
}

type costBlock struct {
	Total amount `json:"total"`
}

type costResponse struct {
	Meta struct {
		Count int `json:"count"`
		Total struct {
			Cost costBlock `json:"cost"`
		} `json:"total"`
	} `json:"meta"`
	Data []map[string]json.RawMessage `json:"data"`
}

type groupEntry struct {
	Values []map[string]json.RawMessage `json:"values"`
}

// Costs fetches the cost report for query. The window end is inclusive in the
// API, so the last day of an exclusive window is requested.
func (c *Client) Costs(ctx context.Context, query boundary.CostQuery) (boundary.CostSummary, error) {
	const op = "cost report"
	if c.apiURL == nil {
		return boundary.CostSummary{}, boundary.Config(op, errNoAPI)
	}
	provider := query.Provider
	if provider == "" {
		provider = defaultProvider
	}
	q := url.Values{}
	q.Set("start_date", query.Start.UTC().Format(queryDateFormat))
	q.Set("end_date", query.End.UTC().Add(-1).Format(queryDateFormat))
	q.Set("filter[resolution]", "daily")
	if query.GroupBy != "" {
		q.Set(fmt.Sprintf("group_by[%s]", query.GroupBy), "*")
	}
	keys := make([]string, 0, len(query.Filters))
	for k := range query.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(fmt.Sprintf("filter[%s]", k), query.Filters[k])
	}

	body, code, err := c.doRequest(ctx, op, http.MethodGet, c.endpoint(c.apiURL, "reports/"+provider+"/costs/", q), nil, "")
	if err != nil {
		return boundary.CostSummary{}, err
	}
	if code != http.StatusOK {
		return boundary.CostSummary{}, statusError(op, code, body)
	}
	summary, err := parseCosts(body, query.GroupBy)
	if err != nil {
		return boundary.CostSummary{}, boundary.Transport(op, fmt.Errorf("malformed cost report: %w", err))
	}
	return summary, nil
}

func parseCosts(body []byte, groupBy string) (boundary.CostSummary, error) {
	var resp costResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return boundary.CostSummary{}, err
	}
	total, err := toDecimal(resp.Meta.Total.Cost.Total.Value)
	if err != nil {
		return boundary.CostSummary{}, fmt.Errorf("meta.total.cost.total.value: %w", err)
	}
	summary := boundary.CostSummary{
		Total: total,
		Units: resp.Meta.Total.Cost.Total.Units,
		Count: resp.Meta.Count,
	}
	if groupBy == "" {
		return summary, nil
	}

	summary.ByGroup = map[string]decimal.Decimal{}
	for _, day := range resp.Data {
		raw, ok := day[groupBy+"s"]
		if !ok {
			continue
		}
		var groups []groupEntry
		if err := json.Unmarshal(raw, &groups); err != nil {
			return boundary.CostSummary{}, fmt.Errorf("data[].%ss: %w", groupBy, err)
		}
		for _, g := range groups {
			for _, v := range g.Values {
				var name string
				if err := json.Unmarshal(v[groupBy], &name); err != nil {
					return boundary.CostSummary{}, fmt.Errorf("data[].%ss[].values[].%s: %w", groupBy, groupBy, err)
				}
				var cost costBlock
				if err := json.Unmarshal(v["cost"], &cost); err != nil {
					return boundary.CostSummary{}, fmt.Errorf("data[].%ss[].values[].cost: %w", groupBy, err)
				}
				amount, err := toDecimal(cost.Total.Value)
				if err != nil {
					return boundary.CostSummary{}, err
				}
				summary.ByGroup[name] = summary.ByGroup[name].Add(amount)
			}
		}
	}
	return summary, nil
}

func toDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
