package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hashicorp/errwrap"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	rootcerts "github.com/hashicorp/go-rootcerts"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"golang.org/x/time/rate"
)

const EnvGatehouseAddr = "GATEHOUSE_ADDR"
const EnvGatehouseCACert = "GATEHOUSE_CACERT"
const EnvGatehouseCAPath = "GATEHOUSE_CAPATH"
const EnvGatehouseClientCert = "GATEHOUSE_CLIENT_CERT"
const EnvGatehouseClientKey = "GATEHOUSE_CLIENT_KEY"
const EnvGatehouseClientTimeout = "GATEHOUSE_CLIENT_TIMEOUT"
const EnvGatehouseTLSInsecure = "GATEHOUSE_TLS_INSECURE"
const EnvGatehouseTLSServerName = "GATEHOUSE_TLS_SERVER_NAME"
const EnvGatehouseMaxRetries = "GATEHOUSE_MAX_RETRIES"
const EnvGatehouseToken = "GATEHOUSE_TOKEN"
const EnvGatehouseRateLimit = "GATEHOUSE_RATE_LIMIT"
const EnvGatehouseWorkspaceId = "GATEHOUSE_WORKSPACE_ID"

// Config is used to configure the creation of the client
type Config struct {
	// Address is the address of the Gatehouse control plane. This should be a
	// complete URL such as "https://gatehouse.example.com". If you need a
	// custom SSL cert or want to enable insecure mode, you need to specify a
	// custom HttpClient.
	Address string

	// Token is the client token that results from authentication and can be
	// used to make calls into Gatehouse
	Token string

	// WorkspaceId is the workspace (tenant) to use if not overridden per-call
	WorkspaceId string

	// HttpClient is the HTTP client to use. Gatehouse sets sane defaults for
	// the http.Client and its associated http.Transport created in
	// DefaultConfig. If you must modify Gatehouse's defaults, it is suggested
	// that you start with that client and modify as needed rather than start
	// with an empty client (or http.DefaultClient).
	HttpClient *http.Client

	// TLSConfig contains TLS configuration information. After modifying these
	// values, ConfigureTLS should be called.
	TLSConfig *TLSConfig

	// Headers contains extra headers that will be added to any request
	Headers http.Header

	// MaxRetries controls the maximum number of times to retry when a 5xx
	// error occurs. Set to 0 to disable retrying. Defaults to 2 (for a total
	// of three tries).
	MaxRetries int

	// Timeout is for setting custom timeout parameter in the HttpClient
	Timeout time.Duration

	// The Backoff function to use; a default is used if not provided
	Backoff retryablehttp.Backoff

	// The CheckRetry function to use; a default is used if not provided
	CheckRetry retryablehttp.CheckRetry

	// Limiter is the rate limiter used by the client. If this pointer is nil,
	// then there will be no limit set. In contrast, if this pointer is set,
	// even to an empty struct, then that limiter will be used.
	Limiter *rate.Limiter
}

// TLSConfig contains the parameters needed to configure TLS on the HTTP
// client used to communicate with Gatehouse.
type TLSConfig struct {
	// CACert is the path to a PEM-encoded CA cert file to use to verify the
	// Gatehouse server SSL certificate.
	CACert string

	// CAPath is the path to a directory of PEM-encoded CA cert files to
	// verify the Gatehouse server SSL certificate.
	CAPath string

	// ClientCert is the path to the certificate for Gatehouse communication
	ClientCert string

	// ClientKey is the path to the private key for Gatehouse communication
	ClientKey string

	// ServerName, if set, is used to set the SNI host when connecting via
	// TLS.
	ServerName string

	// Insecure enables or disables SSL verification
	Insecure bool
}

// DefaultConfig returns a default configuration for the client. It is safe to
// modify the return value of this function.
//
// The default Address is https://127.0.0.1:9300, but this can be overridden
// by setting the `GATEHOUSE_ADDR` environment variable.
func DefaultConfig() (*Config, error) {
	config := &Config{
		Address:    "https://127.0.0.1:9300",
		HttpClient: cleanhttp.DefaultPooledClient(),
		Timeout:    time.Second * 60,
	}

	transport := config.HttpClient.Transport.(*http.Transport)
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	config.Backoff = retryablehttp.LinearJitterBackoff
	config.MaxRetries = 2
	config.Headers = make(http.Header)

	// We read the environment now; after DefaultConfig returns the caller can
	// override values from command line flags, which take precedence.
	if err := config.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	return config, nil
}

// ConfigureTLS takes a set of TLS configurations and applies those to the
// HTTP client.
func (c *Config) ConfigureTLS() error {
	if c.HttpClient == nil {
		c.HttpClient = cleanhttp.DefaultPooledClient()
	}
	transport, ok := c.HttpClient.Transport.(*http.Transport)
	if !ok {
		return fmt.Errorf("the client's transport does not support TLS configuration")
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	clientTLSConfig := transport.TLSClientConfig

	var clientCert tls.Certificate
	foundClientCert := false

	switch {
	case c.TLSConfig.ClientCert != "" && c.TLSConfig.ClientKey != "":
		var err error
		clientCert, err = tls.LoadX509KeyPair(c.TLSConfig.ClientCert, c.TLSConfig.ClientKey)
		if err != nil {
			return err
		}
		foundClientCert = true
	case c.TLSConfig.ClientCert != "" || c.TLSConfig.ClientKey != "":
		return fmt.Errorf("both client cert and client key must be provided")
	}

	if c.TLSConfig.CACert != "" || c.TLSConfig.CAPath != "" {
		rootConfig := &rootcerts.Config{
			CAFile: c.TLSConfig.CACert,
			CAPath: c.TLSConfig.CAPath,
		}
		if err := rootcerts.ConfigureTLS(clientTLSConfig, rootConfig); err != nil {
			return err
		}
	}

	if c.TLSConfig.Insecure {
		clientTLSConfig.InsecureSkipVerify = true
	}

	if foundClientCert {
		// We use this function to ignore the server's preferential list of
		// CAs, otherwise any CA used for the cert auth backend must be in the
		// server's CA pool
		clientTLSConfig.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			return &clientCert, nil
		}
	}

	if c.TLSConfig.ServerName != "" {
		clientTLSConfig.ServerName = c.TLSConfig.ServerName
	}

	return nil
}

// setAddr parses the given address and strips any trailing "/v1" and any
// embedded workspace path, setting the workspace ID from the latter if found.
// This lets users paste a URL straight out of the Gatehouse console.
func (c *Config) setAddr(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("error parsing address %q: %w", addr, err)
	}

	trimmed := strings.TrimSuffix(u.Path, "/")
	// .../v1/workspaces/<workspace id>
	if split := strings.Split(trimmed, "/"); len(split) >= 2 {
		if split[len(split)-2] == "workspaces" {
			c.WorkspaceId = split[len(split)-1]
			trimmed = strings.Join(split[:len(split)-2], "/")
		}
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	u.Path = strings.TrimSuffix(trimmed, "/v1")

	c.Address = strings.TrimSuffix(u.String(), "/")
	return nil
}

// ReadEnvironment reads configuration information from the environment. If
// there is an error, no configuration value is updated.
func (c *Config) ReadEnvironment() error {
	var envCACert string
	var envCAPath string
	var envClientCert string
	var envClientKey string
	var envInsecure bool
	var envServerName string

	if v := os.Getenv(EnvGatehouseAddr); v != "" {
		if err := c.setAddr(v); err != nil {
			return err
		}
	}

	if v := os.Getenv(EnvGatehouseToken); v != "" {
		c.Token = v
	}

	if v := os.Getenv(EnvGatehouseWorkspaceId); v != "" {
		c.WorkspaceId = v
	}

	if v := os.Getenv(EnvGatehouseMaxRetries); v != "" {
		maxRetries, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		c.MaxRetries = int(maxRetries)
	}

	if t := os.Getenv(EnvGatehouseClientTimeout); t != "" {
		clientTimeout, err := parseutil.ParseDurationSecond(t)
		if err != nil {
			return fmt.Errorf("could not parse %q", EnvGatehouseClientTimeout)
		}
		c.Timeout = clientTimeout
	}

	if v := os.Getenv(EnvGatehouseRateLimit); v != "" {
		rateLimit, burstLimit, err := parseRateLimit(v)
		if err != nil {
			return err
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rateLimit), burstLimit)
	}

	// TLS Config
	{
		var foundTLSConfig bool
		if v := os.Getenv(EnvGatehouseCACert); v != "" {
			foundTLSConfig = true
			envCACert = v
		}
		if v := os.Getenv(EnvGatehouseCAPath); v != "" {
			foundTLSConfig = true
			envCAPath = v
		}
		if v := os.Getenv(EnvGatehouseClientCert); v != "" {
			foundTLSConfig = true
			envClientCert = v
		}
		if v := os.Getenv(EnvGatehouseClientKey); v != "" {
			foundTLSConfig = true
			envClientKey = v
		}
		if v := os.Getenv(EnvGatehouseTLSInsecure); v != "" {
			foundTLSConfig = true
			var err error
			envInsecure, err = strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("could not parse %s", EnvGatehouseTLSInsecure)
			}
		}
		if v := os.Getenv(EnvGatehouseTLSServerName); v != "" {
			foundTLSConfig = true
			envServerName = v
		}
		if foundTLSConfig {
			c.TLSConfig = &TLSConfig{
				CACert:     envCACert,
				CAPath:     envCAPath,
				ClientCert: envClientCert,
				ClientKey:  envClientKey,
				ServerName: envServerName,
				Insecure:   envInsecure,
			}
			return c.ConfigureTLS()
		}
	}

	return nil
}

func parseRateLimit(val string) (rate float64, burst int, err error) {
	_, err = fmt.Sscanf(val, "%f:%d", &rate, &burst)
	if err != nil {
		rate, err = strconv.ParseFloat(val, 64)
		if err != nil {
			err = fmt.Errorf("%v was provided but incorrectly formatted", EnvGatehouseRateLimit)
		}
		burst = int(rate)
	}

	return rate, burst, err
}

// Client is the client to the Gatehouse API. Create a client with NewClient.
type Client struct {
	modifyLock sync.RWMutex
	config     *Config
}

// NewClient returns a new client for the given configuration.
//
// If the configuration is nil, Gatehouse will use configuration from
// DefaultConfig(), which is the recommended starting configuration.
//
// If the environment variable `GATEHOUSE_TOKEN` is present, the token will be
// automatically added to the client. Otherwise, you must manually call
// `SetToken()`.
func NewClient(c *Config) (*Client, error) {
	def, err := DefaultConfig()
	if err != nil {
		return nil, errwrap.Wrapf("error encountered setting up default configuration: {{err}}", err)
	}

	if c == nil {
		c = def
	}

	if c.HttpClient == nil {
		c.HttpClient = def.HttpClient
	}
	if c.HttpClient.Transport == nil {
		c.HttpClient.Transport = def.HttpClient.Transport
	}
	if c.HttpClient.CheckRedirect == nil {
		// Ensure redirects are not automatically followed. Returning
		// ErrUseLastResponse causes the Go net library to not close the
		// response body and to nil out the error, so retry clients do not
		// retry on every redirect because of a synthesized error.
		c.HttpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if c.Address != "" {
		if err := c.setAddr(c.Address); err != nil {
			return nil, err
		}
	}

	return &Client{
		config: c,
	}, nil
}

// SetAddr sets the address of the Gatehouse control plane in the client. The
// format of address should be "<Scheme>://<Host>:<Port>". Setting this on a
// client will override the value of the GATEHOUSE_ADDR environment variable.
func (c *Client) SetAddr(addr string) error {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	return c.config.setAddr(addr)
}

// Addr returns the current client address.
func (c *Client) Addr() string {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()

	return c.config.Address
}

// SetTLSConfig applies the given TLS config to the client's transport.
func (c *Client) SetTLSConfig(conf *TLSConfig) error {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	if conf == nil {
		return fmt.Errorf("nil configuration supplied to SetTLSConfig")
	}

	c.config.TLSConfig = conf
	return c.config.ConfigureTLS()
}

// SetLimiter will set the rate limiter for this client. This method is
// thread-safe. rateLimit and burst are specified according to
// https://godoc.org/golang.org/x/time/rate#NewLimiter
func (c *Client) SetLimiter(rateLimit float64, burst int) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.Limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
}

// SetMaxRetries sets the number of retries that will be used in the case of
// certain errors
func (c *Client) SetMaxRetries(retries int) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.MaxRetries = retries
}

// SetCheckRetry sets the CheckRetry function to be used for future requests.
func (c *Client) SetCheckRetry(checkRetry retryablehttp.CheckRetry) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.CheckRetry = checkRetry
}

// SetClientTimeout sets the client request timeout
func (c *Client) SetClientTimeout(timeout time.Duration) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.Timeout = timeout
}

// Token returns the current token.
func (c *Client) Token() string {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()

	return c.config.Token
}

// SetToken sets the token directly. This won't perform any auth verification,
// it simply sets the token properly for future requests.
func (c *Client) SetToken(token string) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.Token = token
}

// WorkspaceId returns the workspace currently set on the client.
func (c *Client) WorkspaceId() string {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()

	return c.config.WorkspaceId
}

// SetWorkspaceId sets the workspace used for subsequent requests.
func (c *Client) SetWorkspaceId(id string) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.WorkspaceId = id
}

// SetHeaders clears all previous headers and uses only the given ones going
// forward.
func (c *Client) SetHeaders(headers http.Header) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.Headers = headers
}

// SetBackoff sets the backoff function to be used for future requests.
func (c *Client) SetBackoff(backoff retryablehttp.Backoff) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.config.Backoff = backoff
}

// Clone creates a new client with the same configuration. Note that the same
// underlying http.Client is used; modifying the client from more than one
// goroutine at once may not be safe, so modify the client as needed and then
// clone.
func (c *Client) Clone() (*Client, error) {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()

	config := c.config

	newConfig := &Config{
		Address:     config.Address,
		Token:       config.Token,
		WorkspaceId: config.WorkspaceId,
		HttpClient:  config.HttpClient,
		Headers:     make(http.Header),
		MaxRetries:  config.MaxRetries,
		Timeout:     config.Timeout,
		Backoff:     config.Backoff,
		CheckRetry:  config.CheckRetry,
		Limiter:     config.Limiter,
	}
	if config.TLSConfig != nil {
		newConfig.TLSConfig = new(TLSConfig)
		*newConfig.TLSConfig = *config.TLSConfig
	}
	for k, v := range config.Headers {
		vSlice := make([]string, 0, len(v))
		vSlice = append(vSlice, v...)
		newConfig.Headers[k] = vSlice
	}

	return NewClient(newConfig)
}

func copyHeaders(in http.Header) http.Header {
	ret := make(http.Header)
	for k, v := range in {
		for _, val := range v {
			ret[k] = append(ret[k], val)
		}
	}

	return ret
}

// NewRequest creates a new raw request object to query the Gatehouse control
// plane configured for this client. This is an advanced method and generally
// doesn't need to be called externally.
func (c *Client) NewRequest(ctx context.Context, method, requestPath string, body any, opt ...Option) (*http.Request, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	c.modifyLock.RLock()
	addr := c.config.Address
	workspaceId := c.config.WorkspaceId
	token := c.config.Token
	headers := copyHeaders(c.config.Headers)
	c.modifyLock.RUnlock()

	opts := getOpts(opt...)
	if opts.withWorkspaceId != "" {
		workspaceId = opts.withWorkspaceId
	}
	if workspaceId == "" {
		return nil, fmt.Errorf("no workspace ID set on client or in request options")
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	var rawBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling body: %w", err)
		}
		rawBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rawBody)
	if err != nil {
		return nil, err
	}
	req.URL.Path = path.Join(u.Path, "v1", "workspaces", workspaceId, requestPath)
	req.Host = u.Host

	if len(opts.withQueryMap) > 0 {
		q := req.URL.Query()
		for k, v := range opts.withQueryMap {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header = headers
	req.Header.Set("content-type", "application/json")
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}

	return req, nil
}

// Do takes a properly configured request and applies client configuration to
// it, returning the response.
func (c *Client) Do(r *http.Request) (*Response, error) {
	c.modifyLock.RLock()
	limiter := c.config.Limiter
	maxRetries := c.config.MaxRetries
	checkRetry := c.config.CheckRetry
	backoff := c.config.Backoff
	httpClient := c.config.HttpClient
	timeout := c.config.Timeout
	token := c.config.Token
	c.modifyLock.RUnlock()

	ctx := r.Context()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// Sanity check the token before potentially erroring from the API
	idx := strings.IndexFunc(token, func(c rune) bool {
		return !unicode.IsPrint(c)
	})
	if idx != -1 {
		return nil, fmt.Errorf("configured Gatehouse token contains non-printable characters and cannot be used")
	}

	req, err := retryablehttp.FromRequest(r)
	if err != nil {
		return nil, fmt.Errorf("error converting request to retryable request: %w", err)
	}

	if timeout != 0 {
		// The resulting cancel is discarded on purpose: deferring it here
		// would cancel the context before the caller reads the response body.
		//nolint:govet
		ctx, _ = context.WithTimeout(ctx, timeout)
	}
	req.Request = req.Request.WithContext(ctx)

	if backoff == nil {
		backoff = retryablehttp.LinearJitterBackoff
	}

	if checkRetry == nil {
		checkRetry = retryablehttp.DefaultRetryPolicy
	}

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		RetryWaitMin: 1000 * time.Millisecond,
		RetryWaitMax: 1500 * time.Millisecond,
		RetryMax:     maxRetries,
		Backoff:      backoff,
		CheckRetry:   checkRetry,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	result, err := client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "tls: oversized") {
			err = errwrap.Wrapf(
				"{{err}}\n\n"+
					"This error usually means that the server is running with TLS disabled\n"+
					"but the client is configured to use TLS. Please either enable TLS\n"+
					"on the server or run the client with -addr set to an address\n"+
					"that uses the http protocol:\n\n"+
					"    gatehouse <command> -addr http://<address>\n\n"+
					"You can also set the GATEHOUSE_ADDR environment variable:\n\n\n"+
					"    GATEHOUSE_ADDR=http://<address> gatehouse <command>\n\n"+
					"where <address> is replaced by the actual address to the server.",
				err)
		}
		return nil, err
	}

	return newResponse(result)
}
