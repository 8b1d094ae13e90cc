package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// CollaboratorStatus is the per-user outcome of a collaborator invitation.
type CollaboratorStatus string

const (
	CollaboratorInvited CollaboratorStatus = "invited"
	CollaboratorExists  CollaboratorStatus = "exists"
	CollaboratorError   CollaboratorStatus = "error"
)

// CreateRepositoryInput describes the repository to create.
type CreateRepositoryInput struct {
	Name        string
	Org         string // empty creates the repository on the token owner's account
	Description string
	Private     bool
}

// Repository is the subset of the GitHub repository payload the service keeps.
type Repository struct {
	HTMLURL    string
	FullName   string
	OwnerLogin string
	Name       string
}

// CreateRepository creates an initialised repository under the organization, or
// under the authenticated user when no organization is given.
func (c *Client) CreateRepository(ctx context.Context, token string, input CreateRepositoryInput) (*Repository, error) {
	const op = "create_repository"

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errEmptyArgument
	}

	api, err := c.api(token)
	if err != nil {
		return nil, err
	}

	spec := &gh.Repository{
		Name:     gh.String(name),
		Private:  gh.Bool(input.Private),
		AutoInit: gh.Bool(true),
	}
	if input.Description != "" {
		spec.Description = gh.String(input.Description)
	}

	org := strings.TrimSpace(input.Org)
	if org != "" {
		org = url.PathEscape(org)
	}

	created, resp, err := api.Repositories.Create(ctx, org, spec)
	// a plain 403 here is a permission problem, not a quota
	if err := c.observe(op, resp, err, tooManyRequests); err != nil {
		return nil, err
	}

	return &Repository{
		HTMLURL:    created.GetHTMLURL(),
		FullName:   created.GetFullName(),
		OwnerLogin: created.GetOwner().GetLogin(),
		Name:       created.GetName(),
	}, nil
}

// AddCollaborator grants push access on owner/repo to username. GitHub answers 201
// when an invitation was sent and 204 when the user already had access.
func (c *Client) AddCollaborator(ctx context.Context, token, owner, repo, username string) (CollaboratorStatus, error) {
	const op = "add_collaborator"

	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" || strings.TrimSpace(username) == "" {
		return CollaboratorError, errEmptyArgument
	}

	api, err := c.api(token)
	if err != nil {
		return CollaboratorError, err
	}

	_, resp, err := api.Repositories.AddCollaborator(ctx,
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(username),
		&gh.RepositoryAddCollaboratorOptions{Permission: "push"},
	)
	if err := c.observe(op, resp, err, quotaOnly); err != nil {
		return CollaboratorError, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return CollaboratorExists, nil
	}
	return CollaboratorInvited, nil
}
