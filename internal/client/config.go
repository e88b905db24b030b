package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kaamsetu/kaamsetu/internal/auth"
	"sigs.k8s.io/yaml"
)

const (
	// TestRootDirEnvKey is the environment variable key used to set the file system root when testing.
	TestRootDirEnvKey = "KAAMCTL_TEST_ROOT_DIR"
)

// Config holds the information needed to connect to a KaamSetu API server
type Config struct {
	Service  Service  `json:"service"`
	Identity Identity `json:"identity"`

	// baseDir is used to resolve relative paths
	// If baseDir is empty, the current working directory is used.
	baseDir string `json:"-"`
	// TestRootDir is the root directory for test files.
	testRootDir string `json:"-"`
}

// Service contains information how to connect to the KaamSetu API server.
type Service struct {
	// Server is the URL of the API server (the part before /api/v1/...).
	Server string `json:"server"`

	// InsecureSkipVerify skips the validation of the server certificate, e.g. a self signed one.
	InsecureSkipVerify bool `json:"insecure-skip-tls-verify,omitempty"`
}

// Identity is sent with every request. A token is used with the local authenticator,
// the user fields with the header based one.
type Identity struct {
	Token string `json:"token,omitempty"`
	User  string `json:"user,omitempty"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Session groups the live queries of this client on the server.
	Session string `json:"session,omitempty"`
}

func (c *Config) SetBaseDir(baseDir string) {
	c.baseDir = baseDir
}

func NewDefault() *Config {
	c := &Config{}

	if value := os.Getenv(TestRootDirEnvKey); value != "" {
		c.testRootDir = filepath.Clean(value)
	}

	return c
}

// NewFromConfig returns a new KaamSetu API client from the given config.
func NewFromConfig(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewClient(config.Service.Server, config.Identity, NewHTTPClientFromConfig(config)), nil
}

// NewHTTPClientFromConfig returns a new HTTP Client from the given config.
func NewHTTPClientFromConfig(config *Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: config.Service.InsecureSkipVerify, //nolint:gosec
			},
			ForceAttemptHTTP2:     false,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// DefaultClientConfigPath returns the default path to the kaamctl config file.
func DefaultClientConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".kaamsetu", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	config.SetBaseDir(filepath.Dir(filename))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// NewFromConfigFile returns a new KaamSetu API client using the config read from the given file.
func NewFromConfigFile(filename string) (*Client, error) {
	config, err := ParseConfigFile(filename)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(config)
}

// WriteConfig writes a client config file using the given parameters.
func WriteConfig(filename string, server string, identity Identity) error {
	config := NewDefault()
	config.Service = Service{
		Server: server,
	}
	config.Identity = identity

	return config.Persist(filename)
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	validationErrors := make([]error, 0)
	validationErrors = append(validationErrors, validateService(c.Service)...)
	validationErrors = append(validationErrors, validateIdentity(c.Identity)...)
	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(validationErrors...))
	}
	return nil
}

func validateService(service Service) []error {
	validationErrors := make([]error, 0)
	// Make sure the server is specified and well-formed
	if len(service.Server) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("no server found"))
	} else {
		u, err := url.Parse(service.Server)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: %w", service.Server, err))
		}
		if err == nil && len(u.Hostname()) == 0 {
			validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: no hostname", service.Server))
		}
	}
	return validationErrors
}

func validateIdentity(identity Identity) []error {
	if identity.Token != "" {
		return nil
	}
	validationErrors := make([]error, 0)
	if identity.User == "" {
		validationErrors = append(validationErrors, fmt.Errorf("either a token or a user is required"))
	}
	if identity.User != "" && !auth.Role(identity.Role).Valid() {
		validationErrors = append(validationErrors, fmt.Errorf("invalid role %q: must be worker or employer", identity.Role))
	}
	return validationErrors
}
