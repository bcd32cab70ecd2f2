package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// DefaultBaseURL is the TransportAPI public journey endpoint
const DefaultBaseURL = "https://transportapi.com/v3/uk/public_journey.json"

// DefaultTimeout bounds a single TransportAPI request
const DefaultTimeout = 10 * time.Second

// ErrUpstream wraps every failure that is not a definite "no route" answer
var ErrUpstream = errors.New("upstream route lookup failed")

// Doer abstracts anything that can execute an HTTP request, such as *http.Client
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPError is returned for 4xx and 5xx responses
type HTTPError struct {
	URL, Status string
	StatusCode  int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

// Credentials identify the application to TransportAPI
type Credentials struct {
	AppID  string
	AppKey string
}

// TransportAPI resolves train itineraries with the TransportAPI public journey planner
type TransportAPI struct {
	baseURL  string
	creds    Credentials
	client   Doer
	location *time.Location
}

// NewTransportAPI creates a client. Query dates and times are expressed in loc.
func NewTransportAPI(baseURL string, creds Credentials, client Doer, loc *time.Location) *TransportAPI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TransportAPI{
		baseURL:  baseURL,
		creds:    creds,
		client:   client,
		location: loc,
	}
}

type journeyResponse struct {
	Error  json.RawMessage `json:"error"`
	Routes []struct {
		DepartureDatetime string `json:"departure_datetime"`
		ArrivalDatetime   string `json:"arrival_datetime"`
	} `json:"routes"`
}

func (c *TransportAPI) Resolve(ctx context.Context, origin, destination models.StationCode, notBefore time.Time) (Itinerary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(origin, destination, notBefore), nil)
	if err != nil {
		return Itinerary{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = stripQuery(uerr.URL)
		}
		return Itinerary{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := check(resp); err != nil {
		return Itinerary{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var body journeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Itinerary{}, fmt.Errorf("%w: malformed response: %w", ErrUpstream, err)
	}

	if hasError(body.Error) || len(body.Routes) == 0 {
		return Itinerary{}, &RouteNotFoundError{Origin: origin, Destination: destination, NotBefore: notBefore}
	}

	dep, err := c.parseTime(body.Routes[0].DepartureDatetime)
	if err != nil {
		return Itinerary{}, fmt.Errorf("%w: invalid departure_datetime: %w", ErrUpstream, err)
	}
	arr, err := c.parseTime(body.Routes[0].ArrivalDatetime)
	if err != nil {
		return Itinerary{}, fmt.Errorf("%w: invalid arrival_datetime: %w", ErrUpstream, err)
	}
	if !arr.After(dep) {
		return Itinerary{}, fmt.Errorf("%w: arrival %s is not after departure %s", ErrUpstream,
			arr.Format(time.RFC3339), dep.Format(time.RFC3339))
	}

	return Itinerary{DepartureAt: dep, ArrivalAt: arr}, nil
}

func (c *TransportAPI) requestURL(origin, destination models.StationCode, notBefore time.Time) string {
	local := notBefore.In(c.location)
	q := url.Values{}
	q.Set("from", "crs:"+origin.String())
	q.Set("to", "crs:"+destination.String())
	q.Set("date", local.Format("2006-01-02"))
	q.Set("time", local.Format("15:04"))
	q.Set("modes", "train")
	q.Set("app_id", c.creds.AppID)
	q.Set("app_key", c.creds.AppKey)
	return c.baseURL + "?" + q.Encode()
}

var upstreamLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime accepts RFC 3339 timestamps and naive local ones
func (c *TransportAPI) parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range upstreamLayouts {
		if t, err := time.ParseInLocation(layout, s, c.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func hasError(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func check(r *http.Response) error {
	if r.StatusCode >= 400 && r.StatusCode < 600 {
		io.Copy(io.Discard, r.Body)
		r.Body.Close()

		var where string
		if r.Request != nil {
			where = stripQuery(r.Request.URL.String())
		}
		return &HTTPError{
			URL:        where,
			Status:     r.Status,
			StatusCode: r.StatusCode,
		}
	}
	return nil
}

// stripQuery drops the query string, which carries app_key
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}
