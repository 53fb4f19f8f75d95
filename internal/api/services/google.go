package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/arnavk09/campusswap/internal/config"
)

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	// ErrIdentityUnavailable means the provider could not be reached.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	// ErrIdentityRejected means the provider rejected the credential.
	ErrIdentityRejected = errors.New("identity token rejected")
)

// GoogleClaims is the identity slice CampusSwap keeps from a verified
// Google credential.
type GoogleClaims struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// GoogleIdentity verifies SPA-supplied ID tokens and drives the
// server-side OAuth login flow.
type GoogleIdentity struct {
	oauth  *oauth2.Config
	client *http.Client
}

func NewGoogleIdentity(cfg config.GoogleConfig) *GoogleIdentity {
	return &GoogleIdentity{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL starts the browser OAuth flow.
func (g *GoogleIdentity) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// VerifyIDToken checks an ID token against Google's tokeninfo endpoint
// and returns the verified identity.
func (g *GoogleIdentity) VerifyIDToken(ctx context.Context, idToken string) (*GoogleClaims, error) {
	endpoint := tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrIdentityRejected
	}

	var info struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, ErrIdentityRejected
	}

	return &GoogleClaims{
		UID:     info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// ExchangeCode completes the browser OAuth flow: swap the authorization
// code for a token and fetch the user's profile.
func (g *GoogleIdentity) ExchangeCode(ctx context.Context, code string) (*GoogleClaims, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}

	client := g.oauth.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, ErrIdentityRejected
	}

	return &GoogleClaims{
		UID:     info.ID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
