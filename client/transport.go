package client

import (
	"net/http"
)

// renewTransport injects the bearer access token and, when the server
// answers 401, rotates the pair once and replays the request once. One
// renewal per original request: a permanently dead refresh token must not
// spin the client in a renewal loop.
type renewTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *renewTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the original request is not mutated
	first := req.Clone(req.Context())
	if token := t.client.accessToken(); token != "" {
		first.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Replay needs the body again; without GetBody there is nothing to resend
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if err := t.client.renew(req.Context()); err != nil {
		// Renewal failed: the session is unauthenticated, surface the
		// original 401 untouched
		return resp, nil
	}

	_ = resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+t.client.accessToken())

	return t.base.RoundTrip(retry)
}
