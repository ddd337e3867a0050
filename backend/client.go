// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// errorBody is the JSON error envelope the backends use.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const codeQuorumNotMet = "quorum_not_met"

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, hc *http.Client) *client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// do sends a JSON request and decodes a JSON response into out (when
// non-nil). Failures come back as *RequestError.
func (c *client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := userToken(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, Kind: transportKind(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(op, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// The server accepted the request but we cannot read what it did
		return &RequestError{Op: op, Kind: KindAmbiguous, Status: resp.StatusCode,
			Message: "unreadable response", Err: err}
	}
	return nil
}

// transportKind separates failures where the request never left (dial,
// DNS) from those where it may have been received. A cancelled context
// counts as ambiguous unless it was cut off while dialing.
func transportKind(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindNetwork
	}
	return KindAmbiguous
}

func statusError(op string, resp *http.Response) *RequestError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &eb); err != nil {
			slog.Debug("non-JSON error body", "op", op, "status", resp.StatusCode)
		}
	}
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	re := &RequestError{Op: op, Status: resp.StatusCode, Message: msg}
	switch {
	case eb.Code == codeQuorumNotMet || resp.StatusCode == http.StatusPreconditionFailed:
		re.Kind = KindQuorumNotMet
	case resp.StatusCode == http.StatusNotFound:
		re.Kind = KindNotFound
	case resp.StatusCode >= 500:
		re.Kind = KindServer
	default:
		re.Kind = KindRejected
	}
	return re
}
