// Package source loads the two inputs of a comparison. An input is a local
// path, "-" for stdin, or an http(s) URL. Remote inputs are fetched with GET
// requests only; nothing is ever written back.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TsekNet/confdiff/internal/compare"
	"github.com/TsekNet/confdiff/internal/parser"
)

const (
	// EnvToken is sent as a bearer token when fetching URL inputs.
	EnvToken = "CONFDIFF_TOKEN"
	// EnvInsecure=1 allows sending the token over plain HTTP.
	EnvInsecure = "CONFDIFF_INSECURE"

	// Stdin is the input reference that reads standard input.
	Stdin = "-"

	maxBodyBytes = 32 << 20
)

// Input names one side of a comparison.
type Input struct {
	Side   string        // "left" or "right"
	Ref    string        // path, "-" or URL
	Format parser.Format // empty means detect from Ref
}

// Client reads inputs. The zero value is not usable; use NewClient.
type Client struct {
	token      string
	httpClient *http.Client
	stdin      io.Reader
}

// NewClient creates a Client. token may be empty.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		stdin: os.Stdin,
	}
}

// IsURL reports whether ref is an http(s) URL.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// HTTPError represents a non-200 HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// fetch performs a GET request and returns the body.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if c.token != "" && strings.HasPrefix(strings.ToLower(rawURL), "http://") && os.Getenv(EnvInsecure) != "1" {
		return nil, fmt.Errorf("refusing to send token over plain HTTP (%s)\nUse https:// or set %s=1 to override", rawURL, EnvInsecure)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", rawURL, maxBodyBytes)
	}
	return data, nil
}

// Load reads and parses one input. Errors name the input's side.
func (c *Client) Load(ctx context.Context, in Input) (compare.ConfigFile, error) {
	switch {
	case in.Ref == Stdin:
		if in.Format == "" {
			return compare.ConfigFile{}, fmt.Errorf("%s input is stdin: a format is required", in.Side)
		}
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return compare.ConfigFile{}, fmt.Errorf("reading %s input from stdin: %w", in.Side, err)
		}
		return parse(in, "(stdin)", data, in.Format)

	case IsURL(in.Ref):
		format := in.Format
		if format == "" {
			u, err := url.Parse(in.Ref)
			if err != nil {
				return compare.ConfigFile{}, fmt.Errorf("%s input: %w", in.Side, err)
			}
			if format, err = parser.DetectFormat(u.Path); err != nil {
				return compare.ConfigFile{}, parser.WithSide(err, in.Side)
			}
		}
		data, err := c.fetch(ctx, in.Ref)
		if err != nil {
			return compare.ConfigFile{}, fmt.Errorf("fetching %s input: %w", in.Side, err)
		}
		return parse(in, in.Ref, data, format)
	}
	return parser.Load(in.Side, in.Ref, in.Format)
}

func parse(in Input, name string, data []byte, format parser.Format) (compare.ConfigFile, error) {
	cf, err := parser.Parse(name, data, format)
	if err != nil {
		return compare.ConfigFile{}, parser.WithSide(err, in.Side)
	}
	return cf, nil
}

// LoadPair loads both inputs concurrently. The first failure cancels the
// other load and is returned. Both sides may not read stdin.
func (c *Client) LoadPair(ctx context.Context, left, right Input) (compare.ConfigFile, compare.ConfigFile, error) {
	if left.Ref == Stdin && right.Ref == Stdin {
		return compare.ConfigFile{}, compare.ConfigFile{}, errors.New("only one input can read from stdin")
	}

	var l, r compare.ConfigFile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cf, err := c.Load(gctx, left)
		if err != nil {
			return err
		}
		l = cf
		return nil
	})
	g.Go(func() error {
		cf, err := c.Load(gctx, right)
		if err != nil {
			return err
		}
		r = cf
		return nil
	})
	if err := g.Wait(); err != nil {
		return compare.ConfigFile{}, compare.ConfigFile{}, err
	}
	return l, r, nil
}
