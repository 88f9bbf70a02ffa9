package hmrc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rgehrsitz/satax/internal/config"
	"github.com/rgehrsitz/satax/internal/logging"
	"golang.org/x/oauth2"
)

// ConnectionStatus describes the stored HMRC authorisation.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connected
	Expired
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case Expired:
		return "expired"
	default:
		return "disconnected"
	}
}

// DefaultScopes are requested when none are configured.
var DefaultScopes = []string{"read:self-assessment", "write:self-assessment"}

// OAuthService manages the HMRC authorisation code flow and token lifecycle.
type OAuthService struct {
	cfg     *oauth2.Config
	storage TokenStorage
	logger  logging.Logger
	timeout time.Duration
}

// NewOAuthService creates a service for the given client registration.
func NewOAuthService(hc config.HMRCConfig, storage TokenStorage, logger logging.Logger) *OAuthService {
	scopes := hc.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &OAuthService{
		cfg: &oauth2.Config{
			ClientID:     hc.ClientID,
			ClientSecret: hc.ClientSecret,
			RedirectURL:  hc.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   hc.AuthURL,
				TokenURL:  hc.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		storage: storage,
		logger:  logging.OrNop(logger),
		timeout: hc.Timeout,
	}
}

// AuthCodeURL returns the page the user visits to grant access.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate exchanges an authorisation code for tokens and stores them.
func (s *OAuthService) Authenticate(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorisation code is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		s.logger.Warnf("HMRC code exchange failed: %v", err)
		return nil, fmt.Errorf("failed to exchange authorisation code: %w", err)
	}
	if err := s.storage.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Infof("connected to HMRC, token expires %s", tok.Expiry.Format(time.RFC3339))
	return tok, nil
}

// RefreshAccessToken forces a refresh using the stored refresh token.
func (s *OAuthService) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	current, err := s.storage.Load()
	if err != nil {
		return nil, err
	}
	if current.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrNotConnected)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tok, err := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		s.logger.Warnf("HMRC token refresh failed: %v", err)
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	if err := s.storage.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Debugf("refreshed HMRC access token")
	return tok, nil
}

// Disconnect forgets the stored tokens.
func (s *OAuthService) Disconnect() error {
	if err := s.storage.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	s.logger.Infof("disconnected from HMRC")
	return nil
}

// Status reports whether a usable token is stored. An expired token with a
// refresh token is still Expired; HTTPClient refreshes it on first use.
func (s *OAuthService) Status() ConnectionStatus {
	tok, err := s.storage.Load()
	if err != nil || tok == nil {
		return Disconnected
	}
	if tok.Valid() {
		return Connected
	}
	return Expired
}

// HTTPClient returns a client that adds the bearer token, refreshing and
// re-storing it when it expires.
func (s *OAuthService) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := s.storage.Load()
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired", ErrNotConnected)
	}
	src := &persistingSource{
		base:    oauth2.ReuseTokenSource(tok, s.cfg.TokenSource(ctx, tok)),
		storage: s.storage,
		logger:  s.logger,
		last:    tok.AccessToken,
	}
	client := oauth2.NewClient(ctx, src)
	if s.timeout > 0 {
		client.Timeout = s.timeout
	}
	return client, nil
}

func (s *OAuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// persistingSource saves every newly issued token.
type persistingSource struct {
	base    oauth2.TokenSource
	storage TokenStorage
	logger  logging.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.storage.Save(tok); err != nil {
			p.logger.Errorf("failed to store refreshed token: %v", err)
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
