package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"schoolkr/internal/components/assert"
	"schoolkr/internal/components/chrono"
	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/portal/session"
	"schoolkr/internal/region"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_do        = "client.do"
	report_client_bootstrap = "client.bootstrap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// Region is the initially active region, defaults to region.Gyeonggi.
	Region region.ID
	// Scheme used to render endpoint urls, defaults to https.
	Scheme string
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// SessionTTL defaults to session.DefaultTTL.
	SessionTTL time.Duration
	// RateLimit is the maximum number of requests per second, defaults to 2.
	RateLimit float64
	UserAgent string
	// BrowserFingerprint makes the TLS handshake and headers look like a browser's.
	BrowserFingerprint bool
	// MessageOutput receives the full text of every exchange with a portal when set.
	MessageOutput telemetry.MessageOutput
}

func (o Options) withDefaults() Options {
	if o.Region == 0 {
		o.Region = region.Gyeonggi
	}
	if o.Scheme == "" {
		o.Scheme = "https"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 2
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// Descriptor describes a single call to a portal endpoint. A zero Region means the client's
// active region.
type Descriptor struct {
	Region  region.ID
	Kind    region.Kind
	Method  string
	Query   map[string]string
	Payload any
}

// RawResponse is a portal response before any interpretation, non-2xx statuses are not errors
// at this level.
type RawResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r RawResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client issues requests to the regional portals, attaching the session cookie obtained from
// its session manager to each request individually.
type Client struct {
	registry region.Registry
	http     *resty.Client
	sessions *session.Manager
	scheme   string
	tel      telemetry.API
}

func NewClient(
	registry region.Registry,
	opts Options,
	time chrono.API,
	tel telemetry.API,
) (*Client, error) {
	assert.NotNil(time)
	assert.NotNil(tel)

	opts = opts.withDefaults()
	if !registry.Has(opts.Region) {
		return nil, fmt.Errorf("initial region: %w: %s", region.ErrUnknownRegion, opts.Region)
	}

	tel = telemetry.NewScopedAPI("portal", tel)

	httpClient := resty.New()
	// the session cookie is attached per request, a jar would share whichever cookie was
	// received last across every region and in-flight request.
	httpClient.SetCookieJar(nil)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	if opts.BrowserFingerprint {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	hostnames, err := registryHostnames(registry)
	if err != nil {
		return nil, err
	}
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(hostnames...),
	)

	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RateLimit), max(2, int(opts.RateLimit)))
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.MessageOutput)

	c := &Client{
		registry: registry,
		http:     httpClient,
		scheme:   opts.Scheme,
		tel:      tel,
	}
	c.sessions = session.NewManager(opts.Region, bootstrapper{c}, opts.SessionTTL, time, tel)
	return c, nil
}

func registryHostnames(registry region.Registry) ([]string, error) {
	var hostnames []string
	for _, id := range region.All() {
		entry, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		parsed, err := url.Parse("//" + entry.Host)
		if err != nil {
			return nil, fmt.Errorf("region %s: parse host: %w", id, err)
		}
		hostnames = append(hostnames, parsed.Hostname())
	}
	return hostnames, nil
}

// SetRegion selects the region used by Get and Post, a session held for another region is
// dropped.
func (c *Client) SetRegion(id region.ID) error {
	if !c.registry.Has(id) {
		return fmt.Errorf("%w: %s", region.ErrUnknownRegion, id)
	}
	c.sessions.SetRegion(id)
	return nil
}

func (c *Client) Region() region.ID {
	return c.sessions.Region()
}

func (c *Client) Registry() region.Registry {
	return c.registry
}

func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// Get requests an endpoint of the active region with the given query parameters.
func (c *Client) Get(ctx context.Context, kind region.Kind, params map[string]string) (RawResponse, error) {
	return c.Do(ctx, Descriptor{
		Kind:   kind,
		Method: http.MethodGet,
		Query:  params,
	})
}

// Post sends payload as json to an endpoint of the active region.
func (c *Client) Post(ctx context.Context, kind region.Kind, payload any) (RawResponse, error) {
	return c.Do(ctx, Descriptor{
		Kind:    kind,
		Method:  http.MethodPost,
		Payload: payload,
	})
}

func (c *Client) Do(ctx context.Context, d Descriptor) (RawResponse, error) {
	id := d.Region
	if id == 0 {
		id = c.Region()
	}
	if d.Kind == region.Bootstrap {
		return RawResponse{}, fmt.Errorf("the bootstrap endpoint is reserved for session renewal")
	}

	entry, err := c.registry.Lookup(id)
	if err != nil {
		return RawResponse{}, err
	}
	endpoint, err := entry.URL(c.scheme, d.Kind)
	if err != nil {
		return RawResponse{}, err
	}

	s, err := c.sessions.Ensure(ctx, id)
	if err != nil {
		return RawResponse{}, err
	}

	c.tel.ReportDebug(report_client_do, d.Method, endpoint)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", s.Cookie())
	if len(d.Query) > 0 {
		req.SetQueryParams(d.Query)
	}
	if d.Payload != nil {
		req.SetHeader("content-type", "application/json").
			SetBody(d.Payload)
	}

	res, err := req.Execute(d.Method, endpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_do,
			fmt.Errorf("fetch: %w", err),
			d.Method,
			endpoint,
		)
		return RawResponse{}, &TransportError{Method: d.Method, URL: endpoint, Err: err}
	}

	return RawResponse{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.Body(),
	}, nil
}

// bootstrapper requests the landing page of a region without any session cookie.
type bootstrapper struct {
	c *Client
}

func (b bootstrapper) Bootstrap(ctx context.Context, id region.ID) (http.Header, error) {
	entry, err := b.c.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	endpoint, err := entry.URL(b.c.scheme, region.Bootstrap)
	if err != nil {
		return nil, err
	}

	res, err := b.c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		b.c.tel.ReportBroken(
			report_client_bootstrap,
			fmt.Errorf("fetch: %w", err),
			endpoint,
		)
		return nil, &TransportError{Method: http.MethodGet, URL: endpoint, Err: err}
	}
	return res.Header(), nil
}
