// Package proton looks up Proton Mail users' public keys on the Proton key server.
package proton

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrKeyNotFound is returned when the key server has no key for the address.
var ErrKeyNotFound = errors.New("no PGP key found for the email address")

const (
	keyBlockBegin = "-----BEGIN PGP PUBLIC KEY BLOCK-----"
	keyBlockEnd   = "-----END PGP PUBLIC KEY BLOCK-----"

	// maxResponseBytes caps the body read from the key server.
	maxResponseBytes = 1 << 20
)

var lookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hushline_proton_key_lookups_total",
		Help: "Total number of Proton key server lookups by result",
	},
	[]string{"result"},
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Lookup fetches the armored public key published for email. Concurrent
// lookups for the same address share one request, which runs detached from
// any single caller's cancellation. Each caller still returns when its own
// ctx is done.
func (c *Client) Lookup(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(email, func() (any, error) {
		return c.lookup(shared, email)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		lookupsTotal.WithLabelValues("canceled").Inc()
		return "", ctx.Err()
	case res = <-ch:
	}

	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			lookupsTotal.WithLabelValues("not_found").Inc()
		} else {
			lookupsTotal.WithLabelValues("error").Inc()
		}
		return "", err
	}
	lookupsTotal.WithLabelValues("found").Inc()
	return v.(string), nil
}

func (c *Client) lookup(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("op", "get")
	q.Set("search", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pks/lookup?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/pgp-keys, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("proton key server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Msg("proton key server returned no key")
		return "", ErrKeyNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	key, ok := extractKeyBlock(string(body))
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

// extractKeyBlock returns the first armored public key block in s.
func extractKeyBlock(s string) (string, bool) {
	start := strings.Index(s, keyBlockBegin)
	if start == -1 {
		return "", false
	}
	end := strings.Index(s[start:], keyBlockEnd)
	if end == -1 {
		return "", false
	}
	return s[start : start+end+len(keyBlockEnd)], true
}
