package degiro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/ratio/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the Degiro trading platform.
	DefaultBaseURL = "https://trader.degiro.nl"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 1

	// DefaultSearchLimit is the default number of products per search.
	DefaultSearchLimit = 10
)

// session holds the state established by Login. The config endpoint hands
// back per-session service URLs; the intAccount is required on every data
// request.
type session struct {
	id         string
	intAccount int64
	config     clientConfig
}

// Client is a Degiro API client. It manages the login session and exposes
// company search plus Refinitiv fundamentals retrieval.
type Client struct {
	baseURL     string
	username    string
	password    string
	userAgent   string
	searchLimit int
	httpClient  *http.Client
	logger      arbor.ILogger
	limiter     *rate.Limiter

	mu      sync.Mutex
	session *session
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithRateInterval sets the minimum time between requests.
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithUserAgent sets the user agent sent on every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithSearchLimit sets the default product count per search.
func WithSearchLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// NewClient creates a new Degiro API client. Login must be called before
// any data operation.
func NewClient(username, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		username:    username,
		password:    password,
		searchLimit: DefaultSearchLimit,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login establishes a session: authenticate, discover the per-session
// service URLs, and resolve the account number. oneTimePassword is the TOTP
// code for accounts with two-factor auth enabled; pass empty for accounts
// without it.
func (c *Client) Login(ctx context.Context, oneTimePassword string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := "/login/secure/login"
	payload := loginRequest{
		Username:    c.username,
		Password:    c.password,
		QueryParams: map[string]string{},
	}
	if oneTimePassword != "" {
		path = "/login/secure/login/totp"
		payload.OneTimePassword = oneTimePassword
	}

	var login loginResponse
	if err := c.post(ctx, c.baseURL+path, payload, &login); err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	if login.SessionID == "" {
		return &AuthenticationError{Reason: "no session id in login response"}
	}

	sess := &session{id: login.SessionID}

	var config configResponse
	if err := c.getJSON(ctx, c.baseURL+"/login/secure/config", sess, &config); err != nil {
		return fmt.Errorf("config discovery failed: %w", err)
	}
	sess.config = config.Data

	if sess.config.RefinitivCompanyProfileURL == "" || sess.config.RefinitivCompanyRatiosURL == "" {
		return &AuthenticationError{Reason: "session config is missing fundamentals endpoints"}
	}

	var info clientInfoResponse
	infoURL := joinURL(sess.config.PaURL, "client") + "?sessionId=" + url.QueryEscape(sess.id)
	if err := c.getJSON(ctx, infoURL, sess, &info); err != nil {
		return fmt.Errorf("client info lookup failed: %w", err)
	}
	sess.intAccount = info.Data.IntAccount

	c.session = sess

	if c.logger != nil {
		c.logger.Info().
			Int64("int_account", sess.intAccount).
			Msg("Degiro session established")
	}
	return nil
}

// Logout drops the current session on the server. Errors are returned but a
// stale session on the platform side expires on its own.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	if sess == nil {
		return nil
	}

	logoutURL := fmt.Sprintf("%s/login/secure/logout?intAccount=%d&sessionId=%s",
		c.baseURL, sess.intAccount, url.QueryEscape(sess.id))
	return c.getJSON(ctx, logoutURL, sess, nil)
}

// SearchCompanies looks up listed products matching the query text. A limit
// of 0 uses the configured default.
func (c *Client) SearchCompanies(ctx context.Context, query string, limit int) ([]models.CompanyMatch, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.searchLimit
	}

	params := url.Values{}
	params.Set("intAccount", strconv.FormatInt(sess.intAccount, 10))
	params.Set("sessionId", sess.id)
	params.Set("searchText", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", "0")

	searchURL := joinURL(sess.config.ProductSearchURL, "v5/products/lookup") + "?" + params.Encode()

	var result productSearchResponse
	if err := c.getJSON(ctx, searchURL, sess, &result); err != nil {
		return nil, err
	}

	matches := make([]models.CompanyMatch, 0, len(result.Products))
	for _, p := range result.Products {
		if p.ISIN == "" {
			continue
		}
		matches = append(matches, models.CompanyMatch{
			ID:       p.ID.String(),
			Name:     p.Name,
			ISIN:     p.ISIN,
			Symbol:   p.Symbol,
			Currency: p.Currency,
			Exchange: p.ExchangeID.String(),
		})
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("query", query).
			Int("matches", len(matches)).
			Msg("Company search completed")
	}
	return matches, nil
}

// GetCompanyProfile retrieves the raw Refinitiv company profile for an ISIN.
func (c *Client) GetCompanyProfile(ctx context.Context, isin string) (json.RawMessage, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	return c.getRaw(ctx, c.fundamentalsURL(sess, sess.config.RefinitivCompanyProfileURL, isin), sess)
}

// GetCompanyRatios retrieves the raw Refinitiv financial ratios for an ISIN.
func (c *Client) GetCompanyRatios(ctx context.Context, isin string) (json.RawMessage, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	return c.getRaw(ctx, c.fundamentalsURL(sess, sess.config.RefinitivCompanyRatiosURL, isin), sess)
}

// FetchDocument retrieves profile and ratios for an ISIN and assembles the
// combined fundamentals document. A missing profile is tolerated; missing
// ratios are not, because every metric section depends on them.
func (c *Client) FetchDocument(ctx context.Context, isin string) (*models.RawDocument, error) {
	ratios, err := c.GetCompanyRatios(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratios for %s: %w", isin, err)
	}

	profile, err := c.GetCompanyProfile(ctx, isin)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("isin", isin).Msg("Profile fetch failed, continuing with ratios only")
		}
		profile = nil
	}

	return models.AssembleDocument(isin, profile, ratios)
}

func (c *Client) fundamentalsURL(sess *session, base, isin string) string {
	params := url.Values{}
	params.Set("intAccount", strconv.FormatInt(sess.intAccount, 10))
	params.Set("sessionId", sess.id)
	return joinURL(base, url.PathEscape(isin)) + "?" + params.Encode()
}

func (c *Client) currentSession() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, &AuthenticationError{Reason: "not logged in"}
	}
	return c.session, nil
}

// post sends a JSON payload and decodes the JSON response.
func (c *Client) post(ctx context.Context, reqURL string, payload any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req, nil)

	return c.do(req, result)
}

// getJSON performs a GET request with session cookie and decodes into result.
// A nil result discards the body.
func (c *Client) getJSON(ctx context.Context, reqURL string, sess *session, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.applyHeaders(req, sess)

	return c.do(req, result)
}

// getRaw performs a GET request and returns the raw response body.
func (c *Client) getRaw(ctx context.Context, reqURL string, sess *session) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, reqURL, sess, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) applyHeaders(req *http.Request, sess *session) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if sess != nil {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: sess.id})
	}
}

func (c *Client) do(req *http.Request, result any) error {
	if c.logger != nil {
		c.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.Scheme+"://"+req.URL.Host+req.URL.Path).
			Msg("Degiro API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body)
		return &AuthenticationError{Reason: fmt.Sprintf("request rejected with status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   req.URL.Path,
		}
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// joinURL joins a discovered service URL with a relative path, tolerating
// trailing slashes in the config values.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
