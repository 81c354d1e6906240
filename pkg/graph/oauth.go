package graph

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"

	"estatecast/pkg/domain"
)

// NewStateToken returns a random URL-safe token tying an OAuth callback to
// the login request that initiated it.
func NewStateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthURL returns the Facebook login dialog URL that starts the OAuth flow.
func (c *Client) AuthURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", oauthScope)
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.dialogURL + "?" + q.Encode()
}

// ExchangeCode swaps an OAuth authorization code for a user access token.
// redirectURI must match the one the code was issued against.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)

	var token accessTokenResponse
	if err := c.getJSON(ctx, c.baseURL+"/oauth/access_token?"+q.Encode(), &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("no access token in graph response")
	}
	return token.AccessToken, nil
}

// Account is a publishing target discovered during the OAuth flow. The
// access token is the page token; it also covers the page's linked Instagram
// business account.
type Account struct {
	Platform    domain.Platform `json:"platform"`
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	AccessToken string          `json:"accessToken"`
}

// ListAccounts discovers the pages the user manages plus any Instagram
// business accounts linked to them. A failed Instagram lookup drops that
// page's Instagram entry instead of failing the whole discovery.
func (c *Client) ListAccounts(ctx context.Context, userToken string) ([]Account, error) {
	q := url.Values{}
	q.Set("access_token", userToken)

	var pages pagesResponse
	if err := c.getJSON(ctx, c.baseURL+"/me/accounts?"+q.Encode(), &pages); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	accounts := make([]Account, 0, len(pages.Data))
	for _, page := range pages.Data {
		accounts = append(accounts, Account{
			Platform:    domain.PlatformFacebook,
			AccountID:   page.ID,
			AccountName: page.Name,
			AccessToken: page.AccessToken,
		})

		igID, err := c.linkedInstagramID(ctx, page.ID, page.AccessToken)
		if err != nil || igID == "" {
			continue
		}
		accounts = append(accounts, Account{
			Platform:    domain.PlatformInstagram,
			AccountID:   igID,
			AccountName: "@" + c.instagramUsername(ctx, igID, page.AccessToken),
			AccessToken: page.AccessToken,
		})
	}
	return accounts, nil
}

// linkedInstagramID returns the Instagram business account linked to a page,
// or "" when the page has none.
func (c *Client) linkedInstagramID(ctx context.Context, pageID, pageToken string) (string, error) {
	q := url.Values{}
	q.Set("fields", "instagram_business_account")
	q.Set("access_token", pageToken)

	var link instagramLinkResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+pageID+"?"+q.Encode(), &link); err != nil {
		return "", err
	}
	return link.InstagramBusinessAccount.ID, nil
}

// instagramUsername resolves the handle of an Instagram business account,
// falling back to "Unknown" when the lookup fails.
func (c *Client) instagramUsername(ctx context.Context, igID, pageToken string) string {
	q := url.Values{}
	q.Set("fields", "username")
	q.Set("access_token", pageToken)

	var details instagramDetailsResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+igID+"?"+q.Encode(), &details); err != nil || details.Username == "" {
		return "Unknown"
	}
	return details.Username
}

// Graph API response types.

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type pagesResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type instagramLinkResponse struct {
	InstagramBusinessAccount struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

type instagramDetailsResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
