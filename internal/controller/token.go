package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenConfig holds the API client credentials registered on the controller.
type TokenConfig struct {
	ControllerURL string
	ClientName    string
	ClientSecret  string
	Account       string
	Timeout       time.Duration

	// Transport allows injecting a custom round tripper (tests).
	Transport http.RoundTripper
}

// TokenSource returns a caching client-credentials token source for the controller.
// The client id is "<client name>@<account>" and credentials travel in the form body.
func TokenSource(ctx context.Context, cfg TokenConfig) (oauth2.TokenSource, error) {
	if strings.TrimSpace(cfg.ClientName) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("controller: api client name and secret are required")
	}
	if strings.TrimSpace(cfg.Account) == "" {
		return nil, errors.New("controller: account is required")
	}
	base, err := parseControllerURL(cfg.ControllerURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientName + "@" + cfg.Account,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base.JoinPath("controller", "api", "oauth", "access_token").String(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	hc := &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	return cc.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, hc)), nil
}
