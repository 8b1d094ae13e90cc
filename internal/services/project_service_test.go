package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/models"
)

func TestProjectServiceCreateValidates(t *testing.T) {
	db := openServiceTestDB(t)
	owner := seedOwner(t, db, "owner")
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	cases := map[string]CreateProjectInput{
		"missing title": {Org: "org", MinPeople: 1, MaxPeople: 2},
		"missing org":   {Title: "Lab", MinPeople: 1, MaxPeople: 2},
		"zero minimum":  {Title: "Lab", Org: "org", MinPeople: 0, MaxPeople: 2},
		"max below min": {Title: "Lab", Org: "org", MinPeople: 3, MaxPeople: 2},
		"markup title":  {Title: "<script>alert(1)</script>", Org: "org", MinPeople: 1, MaxPeople: 2},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner.ID, input)
			var validation *ValidationError
			require.True(t, errors.As(err, &validation))
		})
	}
}

func TestProjectServiceCreateAssignsInviteToken(t *testing.T) {
	db := openServiceTestDB(t)
	owner := seedOwner(t, db, "owner")
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	description := "  Build a <b>raft</b> cluster  "
	project, err := svc.Create(context.Background(), owner.ID, CreateProjectInput{
		Title:       " <i>Raft</i> ",
		Org:         "course-org",
		Description: &description,
		MinPeople:   2,
		MaxPeople:   2,
	})
	require.NoError(t, err)
	require.Equal(t, "Raft", project.Title)
	require.Equal(t, "Build a raft cluster", project.DisplayDescription())
	require.NotEmpty(t, project.InviteToken)
	require.Equal(t, 1, project.NextGroupNumber)

	other, err := svc.Create(context.Background(), owner.ID, CreateProjectInput{Title: "Other", Org: "course-org", MinPeople: 1, MaxPeople: 1})
	require.NoError(t, err)
	require.NotEqual(t, project.InviteToken, other.InviteToken)

	logs, total, err := audit.List(context.Background(), AuditListOptions{Filters: AuditFilters{Action: AuditActionProjectCreate}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, owner.ID, *logs[0].UserID)
}

func TestProjectServiceCreateRetriesTokenCollision(t *testing.T) {
	db := openServiceTestDB(t)
	owner := seedOwner(t, db, "owner")
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	tokens := []string{"fixed", "fixed", "fresh"}
	svc.newToken = func() (string, error) {
		token := tokens[0]
		tokens = tokens[1:]
		return token, nil
	}

	first, err := svc.Create(context.Background(), owner.ID, CreateProjectInput{Title: "A", Org: "org", MinPeople: 1, MaxPeople: 1})
	require.NoError(t, err)
	require.Equal(t, "fixed", first.InviteToken)

	second, err := svc.Create(context.Background(), owner.ID, CreateProjectInput{Title: "B", Org: "org", MinPeople: 1, MaxPeople: 1})
	require.NoError(t, err)
	require.Equal(t, "fresh", second.InviteToken)
}

func TestProjectServiceOwnerIsolation(t *testing.T) {
	db := openServiceTestDB(t)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")
	project := seedProject(t, db, alice.ID, 1, 2)

	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.GetForOwner(ctx, bob.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
	require.ErrorIs(t, svc.Delete(ctx, bob.ID, project.ID), ErrProjectNotFound)

	projects, err := svc.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, projects)

	loaded, err := svc.GetForOwner(ctx, alice.ID, project.ID)
	require.NoError(t, err)
	require.Equal(t, project.InviteToken, loaded.InviteToken)
}

func TestProjectServiceDeleteCascadesGroups(t *testing.T) {
	db := openServiceTestDB(t)
	owner := seedOwner(t, db, "owner")
	project := seedProject(t, db, owner.ID, 1, 2)
	ledger, err := NewGroupLedger(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ledger.Persist(ctx, &models.Group{
		ProjectID:    project.ID,
		Number:       1,
		Participants: []models.Participant{{Username: "alice", Email: "a@example.com"}},
	}))

	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	loaded, err := svc.GetForOwner(ctx, owner.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Groups, 1)

	require.NoError(t, svc.Delete(ctx, owner.ID, project.ID))

	var count int64
	require.NoError(t, db.Model(&models.Group{}).Where("project_id = ?", project.ID).Count(&count).Error)
	require.Zero(t, count)

	_, err = svc.ResolveInvite(ctx, project.InviteToken)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectServiceResolveInviteIsExact(t *testing.T) {
	db := openServiceTestDB(t)
	owner := seedOwner(t, db, "owner")
	project := seedProject(t, db, owner.ID, 1, 2)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	resolved, err := svc.ResolveInvite(ctx, project.InviteToken)
	require.NoError(t, err)
	require.Equal(t, project.ID, resolved.ID)

	for _, token := range []string{"", "   ", strings.ToLower(project.InviteToken) + "X", project.InviteToken[1:]} {
		_, err := svc.ResolveInvite(ctx, token)
		require.ErrorIs(t, err, ErrProjectNotFound, token)
	}
}

func TestPublicViewHidesOwnerFields(t *testing.T) {
	project := &models.Project{
		OwnerID:     "owner",
		Title:       "Lab",
		Org:         "org",
		MinPeople:   1,
		MaxPeople:   3,
		InviteToken: "secret",
	}

	view := PublicView(project)
	require.Equal(t, "Lab", view.Title)
	require.Equal(t, models.NoDescription, view.Description)
	require.Equal(t, 3, view.MaxPeople)
}
