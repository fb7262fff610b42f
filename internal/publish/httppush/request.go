// Package httppush is the HTTP-push publisher specialization: it turns
// an outbound ExternalMessage into an *http.Request against a Target's
// configured method/URI, then turns the HTTP response into a
// CommandResponseOrAck.
package httppush

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

const contentTypeHeader = "Content-Type"

// buildRequest turns external into an *http.Request: the Content-Type
// header is pulled out of the plain header set and attached as the
// entity's content type instead of being duplicated, body choice falls
// back from raw content-typed bytes to text to raw bytes, and method/URI
// come from target.
func buildRequest(ctx context.Context, target model.Target, external model.ExternalMessage) (*http.Request, error) {
	uri := target.URITemplate
	if uri == "" {
		uri = target.Address
	}

	method := target.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	body, contentType := selectBody(external)

	req, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewReader(body))
	if err != nil {
		return nil, &ditterr.MessageSendingFailed{Reason: "building HTTP request", Err: err}
	}

	for key, value := range external.Headers {
		if strings.EqualFold(key, contentTypeHeader) {
			continue
		}
		req.Header.Set(key, value)
	}
	if contentType != "" {
		req.Header.Set(contentTypeHeader, contentType)
	}

	return req, nil
}

// selectBody picks the outgoing body and content-type: explicit
// content-type wins, then text, then raw bytes with no content-type
// asserted.
func selectBody(external model.ExternalMessage) ([]byte, string) {
	if external.ContentType != "" {
		if external.IsText {
			return []byte(external.Text), external.ContentType
		}
		return external.Bytes, external.ContentType
	}
	if external.IsText {
		return []byte(external.Text), "text/plain"
	}
	return external.Bytes, ""
}
