package app

import (
	"github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/mail"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// ClientConfig converts GitHubConfig into GitHub client parameters.
func (c GitHubConfig) ClientConfig() github.Config {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = github.DefaultTimeout
	}

	return github.Config{
		BaseURL:   c.APIURL,
		UserAgent: c.UserAgent,
		Timeout:   timeout,
		HTTPCache: c.HTTPCache,
	}
}

// FormationConfig converts GitHubConfig into group formation parameters.
func (c GitHubConfig) FormationConfig() services.GroupFormationConfig {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = services.DefaultLookupConcurrency
	}

	return services.GroupFormationConfig{
		PrivateRepos:      c.PrivateRepos,
		LookupConcurrency: concurrency,
	}
}

// SenderConfig converts MailConfig into SMTP relay parameters.
func (c MailConfig) SenderConfig() mail.Config {
	return mail.Config{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		From:        c.From,
		ImplicitTLS: c.ImplicitTLS,
		Timeout:     c.Timeout,
	}
}
