package auth

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

// SessionTTL is the lifetime of tokens minted after a Google sign-in
const SessionTTL = 7 * 24 * time.Hour

// GoogleConfig configures sign-in with Google
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// AdminEmails are granted the admin role on sign-in
	AdminEmails []string

	// Endpoint and APIEndpoint override Google's hosts
	Endpoint    *oauth2.Endpoint
	APIEndpoint string
}

// GoogleSignIn exchanges Google authorization codes for application tokens
type GoogleSignIn struct {
	oauth       *oauth2.Config
	apiEndpoint string
	admins      map[string]bool
	tokens      service.AuthService
	logger      *logger.Logger
}

// NewGoogleSignIn creates the sign-in flow. It is disabled when no client
// id is configured.
func NewGoogleSignIn(cfg GoogleConfig, tokens service.AuthService, log *logger.Logger) *GoogleSignIn {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = true
		}
	}

	return &GoogleSignIn{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
			Endpoint: endpoint,
		},
		apiEndpoint: cfg.APIEndpoint,
		admins:      admins,
		tokens:      tokens,
		logger:      log.Named("google_signin"),
	}
}

// Enabled reports whether Google credentials are configured
func (g *GoogleSignIn) Enabled() bool {
	return g != nil && g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

// AuthCodeURL returns the consent page URL carrying state
func (g *GoogleSignIn) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the Google profile and signs an
// application token for it.
func (g *GoogleSignIn) Exchange(ctx context.Context, code string) (*domain.User, string, error) {
	if !g.Enabled() {
		return nil, "", errors.NewInternalError("Google sign-in is not configured", nil)
	}
	if code == "" {
		return nil, "", errors.NewValidationError("Authorization code is required", nil)
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		g.logger.Warn("Authorization code exchange failed", zap.Error(err))
		return nil, "", errors.NewAuthenticationError("Failed to exchange authorization code")
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(ctx, token))}
	if g.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.apiEndpoint))
	}
	api, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, "", errors.NewInternalError("Failed to create Google API client", err)
	}
	info, err := api.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, "", errors.NewExternalError("Failed to fetch Google profile", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, "", errors.NewAuthenticationError("Google profile is missing an identity")
	}
	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return nil, "", errors.NewAuthenticationError("Google email address is not verified")
	}

	user := &domain.User{
		ID:    "google-" + info.Id,
		Email: info.Email,
		Name:  info.Name,
		Role:  domain.RoleStudent,
	}
	if g.admins[normalizeEmail(info.Email)] {
		user.Role = domain.RoleAdmin
	}

	signed, err := g.tokens.IssueToken(user, SessionTTL)
	if err != nil {
		return nil, "", err
	}
	g.logger.Info("User signed in with Google", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return user, signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
