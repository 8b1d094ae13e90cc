package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charlesng35/gitteams/internal/github"
)

// FakeGitHub is an in-process stand-in for the subset of the GitHub REST API the
// service calls.
type FakeGitHub struct {
	server *httptest.Server

	mu             sync.Mutex
	users          map[string]struct{}
	existing       map[string]struct{}
	orgs           []github.Organization
	rateLimitReset time.Time
	createStatus   int
	createMessage  string

	repos         []string
	collaborators map[string][]string
	requests      map[string]int
}

// NewFakeGitHub starts the fake server and closes it when the test ends.
func NewFakeGitHub(t *testing.T) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		users:         map[string]struct{}{},
		existing:      map[string]struct{}{},
		collaborators: map[string][]string{},
		requests:      map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{name}", f.handleUser)
	mux.HandleFunc("GET /user/orgs", f.handleOrgs)
	mux.HandleFunc("POST /orgs/{org}/repos", f.handleCreateRepo)
	mux.HandleFunc("POST /user/repos", f.handleCreateRepo)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/collaborators/{name}", f.handleCollaborator)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// URL is the API base URL of the fake.
func (f *FakeGitHub) URL() string {
	return f.server.URL
}

// AddUsers registers GitHub accounts. Lookups are case-insensitive.
func (f *FakeGitHub) AddUsers(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range names {
		f.users[strings.ToLower(name)] = struct{}{}
	}
}

// MarkCollaborator makes collaborator requests for name answer 204.
func (f *FakeGitHub) MarkCollaborator(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existing[strings.ToLower(name)] = struct{}{}
}

// SetOrganizations replaces the organizations returned for the token owner.
func (f *FakeGitHub) SetOrganizations(orgs ...github.Organization) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = orgs
}

// RateLimitUntil makes every user lookup answer 403 with an exhausted quota.
func (f *FakeGitHub) RateLimitUntil(reset time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimitReset = reset
}

// FailRepositoryCreation makes repository creation answer status with message.
func (f *FakeGitHub) FailRepositoryCreation(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createStatus = status
	f.createMessage = message
}

// Repositories lists the full names of created repositories in creation order.
func (f *FakeGitHub) Repositories() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.repos...)
}

// Collaborators lists the users added to a repository.
func (f *FakeGitHub) Collaborators(fullName string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.collaborators[fullName]...)
}

// Requests counts calls per endpoint kind (users, orgs, repos, collaborators).
func (f *FakeGitHub) Requests(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[kind]
}

func (f *FakeGitHub) handleUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests["users"]++
	reset := f.rateLimitReset
	_, ok := f.users[strings.ToLower(r.PathValue("name"))]
	f.mu.Unlock()

	if !reset.IsZero() {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"login": r.PathValue("name")})
}

func (f *FakeGitHub) handleOrgs(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.requests["orgs"]++
	orgs := append([]github.Organization{}, f.orgs...)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, orgs)
}

func (f *FakeGitHub) handleCreateRepo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name is required"})
		return
	}

	owner := r.PathValue("org")
	if owner == "" {
		owner = "owner-account"
	}
	fullName := owner + "/" + body.Name

	f.mu.Lock()
	f.requests["repos"]++
	status, message := f.createStatus, f.createMessage
	if status == 0 {
		f.repos = append(f.repos, fullName)
	}
	f.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"message": message})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"name":      body.Name,
		"full_name": fullName,
		"html_url":  "https://github.example/" + fullName,
		"owner":     map[string]string{"login": owner},
	})
}

func (f *FakeGitHub) handleCollaborator(w http.ResponseWriter, r *http.Request) {
	fullName := r.PathValue("owner") + "/" + r.PathValue("repo")
	name := r.PathValue("name")

	f.mu.Lock()
	f.requests["collaborators"]++
	_, exists := f.existing[strings.ToLower(name)]
	f.collaborators[fullName] = append(f.collaborators[fullName], name)
	f.mu.Unlock()

	if exists {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": 1})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
