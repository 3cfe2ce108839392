package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	drepo "Karion/internal/domain/repository"
	xhttp "Karion/pkg/http"
	applogger "Karion/pkg/logger"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart/"
	userAgent      = "Mozilla/5.0 (compatible; karion/1.0)"
)

// Client reads daily bars from the Yahoo Finance chart endpoint.
type Client struct {
	baseURL string
	http    *xhttp.Client
	l       *applogger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(d), xhttp.WithUserAgent(userAgent))
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = applogger.OrNop(l) }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(5*time.Second), xhttp.WithUserAgent(userAgent)),
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.l = c.l.Component("yahoo")
	return c
}

func (c *Client) Name() string { return "yahoo" }

func (c *Client) FetchVolatility(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	return c.chart(ctx, symbol, period, interval)
}

// FetchSeries fetches each symbol in turn. It only fails when no symbol could be read.
func (c *Client) FetchSeries(ctx context.Context, symbols map[string]string, period, interval string) (map[string][]models.Bar, error) {
	out := make(map[string][]models.Bar, len(symbols))
	var errs []error
	for display, ticker := range symbols {
		bars, err := c.chart(ctx, ticker, period, interval)
		if err != nil {
			c.l.Warn("chart fetch failed",
				applogger.String("symbol", display),
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		out[display] = bars
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, errors.Join(errs...))
	}
	return out, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote holds parallel arrays; Yahoo sends null for missing sessions.
type chartQuote struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

func (c *Client) chart(ctx context.Context, ticker, period, interval string) ([]models.Bar, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + chartPath + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"range":    {period},
			"interval": {interval},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart %s: empty result", ticker)
	}
	return toBars(resp.Chart.Result[0]), nil
}

func toBars(r chartResult) []models.Bar {
	q := r.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		b := models.Bar{Time: time.Unix(ts, 0).UTC(), Close: *cl, Open: *cl, High: *cl, Low: *cl}
		if v := at(q.Open, i); v != nil {
			b.Open = *v
		}
		if v := at(q.High, i); v != nil {
			b.High = *v
		}
		if v := at(q.Low, i); v != nil {
			b.Low = *v
		}
		bars = append(bars, b)
	}
	return bars
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

var _ drepo.MarketDataProvider = (*Client)(nil)
