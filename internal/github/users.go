package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// Organization is a GitHub organization the token owner belongs to.
type Organization struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserExists reports whether a GitHub account named username exists.
func (c *Client) UserExists(ctx context.Context, token, username string) (bool, error) {
	const op = "user_exists"

	username = strings.TrimSpace(username)
	if username == "" {
		return false, errEmptyArgument
	}

	api, err := c.api(token)
	if err != nil {
		return false, err
	}

	_, resp, err := api.Users.Get(ctx, url.PathEscape(username))
	err = c.observe(op, resp, err, forbiddenOrTooMany)

	var apiErr *APIError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return false, nil
	default:
		return false, err
	}
}

// ListOrganizations returns up to 100 organizations visible to the token.
func (c *Client) ListOrganizations(ctx context.Context, token string) ([]Organization, error) {
	const op = "list_organizations"

	api, err := c.api(token)
	if err != nil {
		return nil, err
	}

	listed, resp, err := api.Organizations.List(ctx, "", &gh.ListOptions{PerPage: 100})
	err = c.observe(op, resp, err, forbiddenOrTooMany)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	orgs := make([]Organization, 0, len(listed))
	for _, org := range listed {
		orgs = append(orgs, Organization{
			ID:        org.GetID(),
			Login:     org.GetLogin(),
			AvatarURL: org.GetAvatarURL(),
		})
	}
	return orgs, nil
}
