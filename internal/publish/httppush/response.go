package httppush

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// DefaultBodyReadTimeout bounds reading a publish response entity.
const DefaultBodyReadTimeout = 10 * time.Second

// responseLimit picks min(maxTotalMessageSize, ackSizeQuota), treating a
// non-positive bound as "no limit configured for that dimension".
func responseLimit(maxTotalMessageSize, ackSizeQuota int64) int64 {
	switch {
	case maxTotalMessageSize <= 0:
		return ackSizeQuota
	case ackSizeQuota <= 0:
		return maxTotalMessageSize
	case maxTotalMessageSize < ackSizeQuota:
		return maxTotalMessageSize
	default:
		return ackSizeQuota
	}
}

// readBody reads resp.Body under limit bytes and DefaultBodyReadTimeout.
func readBody(ctx context.Context, resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()

	readCtx := ctx
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		readCtx, cancel = context.WithTimeout(ctx, DefaultBodyReadTimeout)
		defer cancel()
	}

	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}

	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		b, err := io.ReadAll(reader)
		done <- result{b, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &ditterr.MessageSendingFailed{Reason: "reading response body", Err: r.err}
		}
		if limit > 0 && int64(len(r.body)) > limit {
			return nil, &ditterr.MessageSendingFailed{Reason: "response body exceeded size limit"}
		}
		return r.body, nil
	case <-readCtx.Done():
		return nil, &ditterr.MessageSendingFailed{Reason: "timed out reading response body", Err: readCtx.Err()}
	}
}

// decodeBody turns a response body into a JSON-ready value: JSON-family
// bodies parse to a JSON value (falling back to a raw JSON string on
// parse failure), binary content types base64-encode into a JSON string,
// everything else is taken as UTF-8 text into a JSON string. A charset
// parameter on the content type is not transcoded.
func decodeBody(body []byte, contentType string) any {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
		params = nil
	}

	switch {
	case isJSONMediaType(mediaType):
		var v any
		if jsonErr := json.Unmarshal(body, &v); jsonErr == nil {
			return v
		}
		return string(body)

	case isBinaryMediaType(mediaType):
		return base64.StdEncoding.EncodeToString(body)

	default:
		return decodeText(body, params["charset"])
	}
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// textLikeMediaTypes are non-text/* media types treated as text for
// decoding purposes (everything else not caught here or by
// isJSONMediaType falls to binary).
var textLikeMediaTypes = map[string]bool{
	"application/xml":                   true,
	"application/x-www-form-urlencoded": true,
	"application/javascript":            true,
	"application/ecmascript":            true,
}

func isBinaryMediaType(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return false
	}
	if textLikeMediaTypes[mediaType] || strings.HasSuffix(mediaType, "+xml") {
		return false
	}
	return true
}

func decodeText(body []byte, charset string) string {
	// Only UTF-8 is decoded natively; any other declared charset is left
	// as raw bytes interpreted as UTF-8.
	_ = charset
	return string(body)
}

// statusRecognized reports whether code maps to a known HTTP status.
func statusRecognized(code int) bool {
	return http.StatusText(code) != ""
}

// buildAcknowledgement constructs the Acknowledgement for one successful
// response, folding response headers into DittoHeaders (content-type
// from the entity wins over any duplicate header).
func buildAcknowledgement(label, entityID string, resp *http.Response, body any) model.Acknowledgement {
	headers := foldHeaders(resp)
	return model.Acknowledgement{
		Label:        label,
		EntityID:     entityID,
		StatusCode:   resp.StatusCode,
		DittoHeaders: headers,
		Body:         body,
	}
}

// buildCommandResponse constructs the matching SendThing/Feature/Claim
// MessageResponse for MessageCommand originals.
func buildCommandResponse(responseType, entityID string, requestHeaders map[string]string, resp *http.Response, contentType string, body any) *model.CommandResponse {
	headers := make(map[string]string, len(requestHeaders))
	for k, v := range requestHeaders {
		headers[k] = v
	}
	for k, v := range foldHeaders(resp) {
		headers[k] = v
	}
	return &model.CommandResponse{
		ResponseType: responseType,
		EntityID:     entityID,
		StatusCode:   resp.StatusCode,
		ContentType:  contentType,
		DittoHeaders: headers,
		Body:         body,
	}
}

func foldHeaders(resp *http.Response) map[string]string {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}
	return headers
}
