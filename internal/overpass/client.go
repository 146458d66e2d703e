package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"golang.org/x/time/rate"

	"gtfstoosm.onebusaway.org/internal/logging"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

// element is one entry of the "elements" array of an [out:json] response.
type element struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Version int               `json:"version"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	Remark    string    `json:"remark,omitempty"`
	Elements  []element `json:"elements"`
}

// Client looks up existing transit stop nodes through an Overpass API
// endpoint. Requests are rate limited.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.http = c }
}

// WithRateLimit allows at most perSecond requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(client *Client) { client.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

// NewClient returns a client for the interpreter at endpoint, or DefaultURL
// when endpoint is empty.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	c := &Client{
		url:     endpoint,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stopQuery selects the nodes passengers board at within radius meters of point.
func stopQuery(point orb.Point, radius float64) string {
	around := fmt.Sprintf("(around:%.1f,%.7f,%.7f)", radius, point.Lat(), point.Lon())
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, filter := range []string{
		`["public_transport"="platform"]`,
		`["public_transport"="stop_position"]`,
		`["highway"="bus_stop"]`,
		`["railway"~"^(platform|tram_stop|halt|station)$"]`,
		`["amenity"="ferry_terminal"]`,
		`["aerialway"="station"]`,
	} {
		b.WriteString("node")
		b.WriteString(filter)
		b.WriteString(around)
		b.WriteString(";")
	}
	b.WriteString(");out meta;")
	return b.String()
}

// NodesNear queries the transit stop nodes within radius meters of point.
func (c *Client) NodesNear(ctx context.Context, point orb.Point, radius float64) ([]*osm.Node, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	form := url.Values{"data": {stopQuery(point, radius)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error building overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "overpass_response_body")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass query failed: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse overpass response: %w", err)
	}
	if result.Remark != "" && strings.Contains(result.Remark, "error") {
		return nil, fmt.Errorf("overpass query failed: %s", result.Remark)
	}

	nodes := make([]*osm.Node, 0, len(result.Elements))
	for _, e := range result.Elements {
		if e.Type != "node" {
			continue
		}
		nodes = append(nodes, toNode(e))
	}

	c.logger.Debug("overpass query",
		slog.Float64("lat", point.Lat()),
		slog.Float64("lon", point.Lon()),
		slog.Int("nodes", len(nodes)),
		slog.Duration("duration", time.Since(start)),
		slog.String("component", "overpass"))
	return nodes, nil
}

func toNode(e element) *osm.Node {
	tags := make(osm.Tags, 0, len(e.Tags))
	for k, v := range e.Tags {
		tags = append(tags, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })

	return &osm.Node{
		ID:      osm.NodeID(e.ID),
		Lat:     e.Lat,
		Lon:     e.Lon,
		Version: e.Version,
		Visible: true,
		Tags:    tags,
	}
}
