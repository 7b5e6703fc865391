package costapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

var errNoAPI = errors.New("no api target configured")

type dataSource struct {
	Bucket       string `json:"bucket"`
	ReportName   string `json:"report_name,omitempty"`
	ReportPrefix string `json:"report_prefix,omitempty"`
	Region       string `json:"region,omitempty"`
}

type sourceCreate struct {
	Name          string `json:"name"`
	SourceType    string `json:"source_type"`
	BillingSource struct {
		DataSource dataSource `json:"data_source"`
	} `json:"billing_source"`
}

type sourceResponse struct {
	UUID string `json:"uuid"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateSource registers a cost source pointing at the report location.
func (c *Client) CreateSource(ctx context.Context, req boundary.SourceRequest) (boundary.Source, error) {
	const op = "create source"
	if c.apiURL == nil {
		return boundary.Source{}, boundary.Config(op, errNoAPI)
	}
	var payload sourceCreate
	payload.Name = req.Name
	payload.SourceType = req.SourceType
	payload.BillingSource.DataSource = dataSource{
		Bucket:       req.Bucket,
		ReportName:   req.ReportName,
		ReportPrefix: req.Prefix,
		Region:       req.Region,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return boundary.Source{}, boundary.Logical(op, err)
	}
	body, code, err := c.doRequest(ctx, op, http.MethodPost, c.endpoint(c.apiURL, "sources/", nil), jsonBody(b), "application/json")
	if err != nil {
		return boundary.Source{}, err
	}
	if code != http.StatusCreated && code != http.StatusOK {
		return boundary.Source{}, statusError(op, code, body)
	}
	var resp sourceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return boundary.Source{}, boundary.Transport(op, err)
	}
	if resp.UUID == "" {
		return boundary.Source{}, boundary.Logical(op, errors.New("response carried no source uuid"))
	}
	return boundary.Source{UUID: resp.UUID, ID: resp.ID, Name: resp.Name}, nil
}

// DeleteSource removes a source. Deleting a missing source succeeds.
func (c *Client) DeleteSource(ctx context.Context, uuid string) error {
	const op = "delete source"
	if c.apiURL == nil {
		return boundary.Config(op, errNoAPI)
	}
	body, code, err := c.doRequest(ctx, op, http.MethodDelete, c.endpoint(c.apiURL, "sources/"+uuid+"/", nil), nil, "")
	if err != nil {
		return err
	}
	switch code {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError(op, code, body)
}
