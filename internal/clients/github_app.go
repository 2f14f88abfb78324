package clients

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubAppClient authenticates as a GitHub App and mints installation
// tokens for the repositories it is installed on.
type GitHubAppClient struct {
	appID      int64
	privateKey *rsa.PrivateKey
	baseURL    string
	client     *github.Client
}

// Installation identifies a GitHub App installation
type Installation struct {
	ID      int64
	Account struct {
		Login string
		Type  string // "User" or "Organization"
	}
	AppID int64
}

// InstallationToken represents an installation access token
type InstallationToken struct {
	Token     string
	ExpiresAt time.Time
}

// NewGitHubAppClient creates a new GitHub App client.
// privateKeyPEM is the PEM-encoded RSA private key from the GitHub App
// settings, PKCS#1 or PKCS#8.
func NewGitHubAppClient(appID int64, privateKeyPEM []byte, baseURL string) (*GitHubAppClient, error) {
	if baseURL == "" {
		baseURL = DefaultGitHubAPI
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
	}

	c := &GitHubAppClient{
		appID:      appID,
		privateKey: key,
		baseURL:    baseURL,
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.ReuseTokenSource(nil, c)},
		Timeout:   30 * time.Second,
	}
	c.client = github.NewClient(httpClient)
	c.client.BaseURL = u
	return c, nil
}

// CreateJWT creates a signed JWT for GitHub App authentication.
// The JWT is valid for 10 minutes (GitHub's maximum).
func (c *GitHubAppClient) CreateJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)), // 60s clock drift
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(c.appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(c.privateKey)
}

// Token implements oauth2.TokenSource with a freshly signed app JWT
func (c *GitHubAppClient) Token() (*oauth2.Token, error) {
	signed, err := c.CreateJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT: %w", err)
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(9 * time.Minute),
	}, nil
}

// GetRepoInstallation looks up the installation covering owner/repo
func (c *GitHubAppClient) GetRepoInstallation(ctx context.Context, owner, repo string) (*Installation, error) {
	inst, _, err := c.client.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to get installation for %s/%s: %w", owner, repo, mapGitHubError(err))
	}

	info := &Installation{ID: inst.GetID(), AppID: inst.GetAppID()}
	info.Account.Login = inst.GetAccount().GetLogin()
	info.Account.Type = inst.GetAccount().GetType()
	return info, nil
}

// CreateInstallationToken creates an installation access token.
// These tokens expire after 1 hour.
func (c *GitHubAppClient) CreateInstallationToken(ctx context.Context, installationID int64) (*InstallationToken, error) {
	token, _, err := c.client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", mapGitHubError(err))
	}
	return &InstallationToken{
		Token:     token.GetToken(),
		ExpiresAt: token.GetExpiresAt().Time,
	}, nil
}
