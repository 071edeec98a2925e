package mailer

import (
	"context"

	"room-availability/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// gmailScope grants SMTP access through XOAUTH2.
const gmailScope = "https://mail.google.com/"

var googleEndpoint = endpoints.Google

// newTokenSource exchanges the stored refresh token for access tokens,
// caching each one until it expires.
func newTokenSource(cfg config.OAuth, endpoint oauth2.Endpoint) oauth2.TokenSource {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{gmailScope},
	}
	return oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
}
