package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/pyama86/gpt-bot/internal/models"
	"github.com/pyama86/gpt-bot/internal/services"
)

// Authorization header schemes
const (
	TokenTypeToken  = "token"
	TokenTypeBearer = "Bearer"
)

// DefaultRefreshMargin is how long before expiry a cached installation
// token stops being handed out.
const DefaultRefreshMargin = 5 * time.Minute

// Credential is a GitHub access token with its header scheme. ExpiresAt is
// zero for tokens that do not expire.
type Credential struct {
	Token     string
	Type      string
	ExpiresAt time.Time
}

// CredentialProvider yields a usable credential for a repository.
// installationID is 0 when the delivery did not carry one.
type CredentialProvider interface {
	Credential(ctx context.Context, repo models.Repository, installationID int64) (Credential, error)
}

// StaticTokenProvider hands out one personal or bot token
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a fixed token
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Credential(context.Context, models.Repository, int64) (Credential, error) {
	if p.token == "" {
		return Credential{}, errors.New("no GitHub token configured")
	}
	return Credential{Token: p.token, Type: TokenTypeToken}, nil
}

// installationAuthority is the part of GitHubAppClient the provider uses
type installationAuthority interface {
	GetRepoInstallation(ctx context.Context, owner, repo string) (*Installation, error)
	CreateInstallationToken(ctx context.Context, installationID int64) (*InstallationToken, error)
}

// InstallationTokenProvider mints GitHub App installation tokens and caches
// them until shortly before they expire. Concurrent callers may both refresh
// an expired entry; the last write wins.
type InstallationTokenProvider struct {
	app    installationAuthority
	cache  *ristretto.Cache[string, Credential]
	margin time.Duration
	now    func() time.Time
}

// NewInstallationTokenProvider creates a caching provider backed by app
func NewInstallationTokenProvider(app *GitHubAppClient, margin time.Duration) (*InstallationTokenProvider, error) {
	return newInstallationTokenProvider(app, margin)
}

func newInstallationTokenProvider(app installationAuthority, margin time.Duration) (*InstallationTokenProvider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, Credential]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create credential cache: %w", err)
	}
	return &InstallationTokenProvider{
		app:    app,
		cache:  cache,
		margin: margin,
		now:    time.Now,
	}, nil
}

func cacheKey(repo models.Repository, installationID int64) string {
	if installationID != 0 {
		return "installation:" + strconv.FormatInt(installationID, 10)
	}
	return "repo:" + repo.Owner + "/" + repo.Name
}

// Credential returns a cached installation token or mints a new one. The
// installation is looked up from the repository when the delivery did not
// name it.
func (p *InstallationTokenProvider) Credential(ctx context.Context, repo models.Repository, installationID int64) (Credential, error) {
	key := cacheKey(repo, installationID)
	if cred, ok := p.cache.Get(key); ok && p.now().Before(cred.ExpiresAt.Add(-p.margin)) {
		return cred, nil
	}

	if installationID == 0 {
		inst, err := p.app.GetRepoInstallation(ctx, repo.Owner, repo.Name)
		if err != nil {
			return Credential{}, err
		}
		installationID = inst.ID
	}

	token, err := p.app.CreateInstallationToken(ctx, installationID)
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{Token: token.Token, Type: TokenTypeBearer, ExpiresAt: token.ExpiresAt}
	if ttl := token.ExpiresAt.Sub(p.now()) - p.margin; ttl > 0 {
		p.cache.SetWithTTL(key, cred, 1, ttl)
		p.cache.Wait()
	}
	return cred, nil
}

// Close releases the cache
func (p *InstallationTokenProvider) Close() {
	p.cache.Close()
}

// GitHubFactory builds a GitHub client per delivery from a credential
// provider
type GitHubFactory struct {
	credentials CredentialProvider
	baseURL     string
	transport   http.RoundTripper
}

// NewGitHubFactory creates a factory. transport may be nil.
func NewGitHubFactory(credentials CredentialProvider, baseURL string, transport http.RoundTripper) *GitHubFactory {
	return &GitHubFactory{credentials: credentials, baseURL: baseURL, transport: transport}
}

// ForEvent returns a client authorized for the event's repository
func (f *GitHubFactory) ForEvent(ctx context.Context, event models.WebhookEvent) (services.GitHub, error) {
	cred, err := f.credentials.Credential(ctx, event.Repository, event.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("resolve credential for %s: %w", event.Repository.FullName, err)
	}
	return NewGitHubClient(cred, f.baseURL, f.transport)
}
