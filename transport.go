package mirsal

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// mirsalRoundTripper paces outgoing requests and runs the response modifiers
// on everything the base transport returns.
type mirsalRoundTripper struct {
	client  *Client
	base    http.RoundTripper
	limiter *rate.Limiter // nil when unlimited
}

// newMirsalTransport wraps base. A limit of 0 disables pacing.
func newMirsalTransport(client *Client, base http.RoundTripper, limit float64, burst int) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	rt := &mirsalRoundTripper{
		client: client,
		base:   base,
	}
	if limit > 0 {
		if burst < 1 {
			burst = 1
		}
		rt.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return rt
}

// RoundTrip satisfies http.RoundTripper. Waiting on the limiter honours the
// request context, so a superseded fetch stops waiting for its turn.
func (m *mirsalRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter : %w", err)
		}
	}

	res, err := m.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if m.client.modifiers == nil {
		return res, nil
	}
	if res.Request == nil {
		res.Request = req
	}
	if err := m.client.modifiers.ModifyResponse(res); err != nil {
		if res.Body != nil {
			res.Body.Close()
		}
		return nil, &BodyError{StatusCode: res.StatusCode, Err: fmt.Errorf("modifying response : %w", err)}
	}
	return res, nil
}
