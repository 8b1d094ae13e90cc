package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/internal/realtime"
	"github.com/charlesng35/gitteams/pkg/mail"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

type recordingNotifier struct {
	groups []int
}

func (r *recordingNotifier) GroupFormed(_ context.Context, _ *models.Project, group *models.Group) {
	r.groups = append(r.groups, group.Number)
}

func TestNewMailNotifierRequiresSender(t *testing.T) {
	_, err := NewMailNotifier(nil)
	require.Error(t, err)
}

func TestMailNotifierAddressesEveryParticipant(t *testing.T) {
	sender := &recordingSender{}
	notifier, err := NewMailNotifier(sender)
	require.NoError(t, err)

	project := &models.Project{Title: "Distributed Systems"}
	group := &models.Group{
		Number: 2,
		Participants: []models.Participant{
			{Username: "alice", Email: "alice@example.com"},
			{Username: "bob", Email: "bob@example.com"},
		},
		RepositoryURL: "https://github.com/course-org/distributed-systems-group-2",
	}

	notifier.GroupFormed(context.Background(), project, group)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, msg.To)
	require.Equal(t, "[Distributed Systems] Group 2 is ready", msg.Subject)
	require.Contains(t, msg.Body, "Repository: https://github.com/course-org/distributed-systems-group-2")
	require.Contains(t, msg.Body, "  - alice\n  - bob\n")
}

func TestMailNotifierSwallowsDeliveryErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	notifier, err := NewMailNotifier(sender)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		notifier.GroupFormed(context.Background(), &models.Project{Title: "x"}, &models.Group{
			Number:       1,
			Participants: []models.Participant{{Username: "alice", Email: "alice@example.com"}},
		})
	})
	require.Len(t, sender.sent, 1)
}

func TestFormGroupNotifiesOnlyCompletedGroups(t *testing.T) {
	f := newFormationFixture(t)
	notifier := &recordingNotifier{}
	WithNotifier(notifier)(f.svc)

	f.github.createErr = &github.APIError{Operation: "create_repository", Status: 500}
	_, err := f.form(participant("alice"), participant("bob"))
	require.Error(t, err)
	require.Empty(t, notifier.groups)

	f.github.createErr = nil
	_, err = f.form(participant("alice"), participant("bob"))
	require.NoError(t, err)
	require.Equal(t, []int{2}, notifier.groups)
}

type recordingPublisher struct {
	stream  string
	userID  string
	message realtime.Message
}

func (r *recordingPublisher) BroadcastToUser(stream, userID string, message realtime.Message) {
	r.stream, r.userID, r.message = stream, userID, message
}

func TestRealtimeNotifierTargetsProjectOwner(t *testing.T) {
	_, err := NewRealtimeNotifier(nil)
	require.Error(t, err)

	publisher := &recordingPublisher{}
	notifier, err := NewRealtimeNotifier(publisher)
	require.NoError(t, err)

	project := &models.Project{BaseModel: models.BaseModel{ID: "project-1"}, OwnerID: "owner-1"}
	group := &models.Group{BaseModel: models.BaseModel{ID: "group-1"}, Number: 3, RepositoryURL: "https://github.com/course-org/x-group-3"}
	notifier.GroupFormed(context.Background(), project, group)

	require.Equal(t, realtime.StreamGroups, publisher.stream)
	require.Equal(t, "owner-1", publisher.userID)
	require.Equal(t, realtime.EventGroupFormed, publisher.message.Event)
	event, ok := publisher.message.Data.(GroupFormedEvent)
	require.True(t, ok)
	require.Equal(t, "Group 3", event.Name)
	require.Equal(t, "project-1", event.ProjectID)
}
