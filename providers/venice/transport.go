package venice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petal-labs/venice/providers/internal/normalize"
)

// maxErrorBody caps how much of a failed response is read for the error
// message.
const maxErrorBody = 1 << 20

const (
	acceptJSON = "application/json"
	acceptSSE  = "text/event-stream"
)

// apiCall describes one HTTP exchange with the API.
type apiCall struct {
	method string
	path   string
	query  url.Values
	body   any
	accept string
}

// send executes c and returns the response once its status is known to be
// 2xx. The caller owns the response body. Failures come back typed.
func (p *Venice) send(ctx context.Context, c apiCall) (*http.Response, error) {
	if p.config.Limiter != nil {
		if err := p.config.Limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("venice: rate limiter: %w", err)
		}
	}

	var body io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("venice: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := strings.TrimRight(p.config.BaseURL, "/") + "/" + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, c.method, u, body)
	if err != nil {
		return nil, normalize.NetworkError(ProviderID, err)
	}
	for key, values := range p.buildHeaders(c.accept) {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	log := p.config.Logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("method", c.method),
		zap.String("path", c.path),
	)
	log.Debug("venice request")
	start := time.Now()

	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		log.Debug("venice request failed", zap.Error(err))
		return nil, normalize.NetworkError(ProviderID, err)
	}

	log.Debug("venice response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", resp.Header.Get("x-request-id")),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, normalize.StatusError(p.config.Translator, resp, respBody)
	}
	return resp, nil
}

// do executes c and decodes a JSON response into out. A nil out discards
// the body.
func (p *Venice) do(ctx context.Context, c apiCall, out any) error {
	if c.accept == "" {
		c.accept = acceptJSON
	}
	data, err := p.doRaw(ctx, c)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return normalize.DecodeError(ProviderID, err)
	}
	return nil
}

// doRaw executes c and returns the whole response body.
func (p *Venice) doRaw(ctx context.Context, c apiCall) ([]byte, error) {
	resp, err := p.send(ctx, c)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, normalize.NetworkError(ProviderID, err)
	}
	return data, nil
}
