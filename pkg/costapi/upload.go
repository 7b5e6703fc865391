package costapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

var errNoIngress = errors.New("no ingress target configured")

// Upload posts body as the multipart "file" field. The ingress answers 202
// with a request id once the payload is accepted for processing.
func (c *Client) Upload(ctx context.Context, filename string, body io.Reader, contentType string) (boundary.UploadResult, error) {
	const op = "ingress upload"
	if c.ingressURL == nil {
		return boundary.UploadResult{}, boundary.Config(op, errNoIngress)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return boundary.UploadResult{}, boundary.Logical(op, err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return boundary.UploadResult{}, boundary.Logical(op, err)
	}
	if err := mw.Close(); err != nil {
		return boundary.UploadResult{}, boundary.Logical(op, err)
	}

	respBody, code, err := c.doRequest(ctx, op, http.MethodPost, c.endpoint(c.ingressURL, "", nil), &buf, mw.FormDataContentType())
	if err != nil {
		return boundary.UploadResult{}, err
	}
	if code != http.StatusAccepted {
		return boundary.UploadResult{}, statusError(op, code, respBody)
	}
	var ack struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return boundary.UploadResult{}, boundary.Transport(op, err)
	}
	if ack.RequestID == "" {
		return boundary.UploadResult{}, boundary.Transport(op, errors.New("acknowledgement carried no request id"))
	}
	return boundary.UploadResult{RequestID: ack.RequestID, AcceptedAt: time.Now().UTC()}, nil
}
