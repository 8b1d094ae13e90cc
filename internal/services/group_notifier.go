package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/internal/realtime"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/mail"
	"github.com/charlesng35/gitteams/pkg/metrics"
)

// GroupNotifier is told about every group that completed provisioning.
// Implementations must not fail the formation request.
type GroupNotifier interface {
	GroupFormed(ctx context.Context, project *models.Project, group *models.Group)
}

// MailNotifier emails the members of a new group their repository link.
type MailNotifier struct {
	sender mail.Sender
	log    *zap.Logger
}

func NewMailNotifier(sender mail.Sender) (*MailNotifier, error) {
	if sender == nil {
		return nil, errors.New("mail notifier: sender is required")
	}
	return &MailNotifier{sender: sender, log: logger.WithModule("group-notifier")}, nil
}

// GroupFormed sends one message addressed to every participant.
func (n *MailNotifier) GroupFormed(ctx context.Context, project *models.Project, group *models.Group) {
	if project == nil || group == nil || len(group.Participants) == 0 {
		return
	}

	msg := groupFormedMessage(project, group)
	if err := n.sender.Send(ctx, msg); err != nil {
		metrics.GroupNotifications.WithLabelValues("failed").Inc()
		n.log.Warn("group notification failed",
			zap.String("project_id", project.ID),
			zap.Int("group_number", group.Number),
			zap.Error(err),
		)
		return
	}

	metrics.GroupNotifications.WithLabelValues("sent").Inc()
	n.log.Debug("group notification sent",
		zap.String("project_id", project.ID),
		zap.Int("group_number", group.Number),
		zap.Int("recipients", len(msg.To)),
	)
}

func groupFormedMessage(project *models.Project, group *models.Group) mail.Message {
	to := make([]string, 0, len(group.Participants))
	var members strings.Builder
	for _, p := range group.Participants {
		to = append(to, p.Email)
		fmt.Fprintf(&members, "  - %s\n", p.Username)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "You are now %s of %q.\n\n", group.Name(), project.Title)
	if group.RepositoryURL != "" {
		fmt.Fprintf(&body, "Repository: %s\n", group.RepositoryURL)
		body.WriteString("Accept the GitHub collaborator invitation to get push access.\n\n")
	}
	body.WriteString("Members:\n")
	body.WriteString(members.String())

	return mail.Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] %s is ready", project.Title, group.Name()),
		Body:    body.String(),
	}
}

// GroupPublisher pushes events to an owner's live connections.
type GroupPublisher interface {
	BroadcastToUser(stream, userID string, message realtime.Message)
}

// RealtimeNotifier publishes completed groups on the owner's groups stream.
type RealtimeNotifier struct {
	publisher GroupPublisher
}

func NewRealtimeNotifier(publisher GroupPublisher) (*RealtimeNotifier, error) {
	if publisher == nil {
		return nil, errors.New("realtime notifier: publisher is required")
	}
	return &RealtimeNotifier{publisher: publisher}, nil
}

// GroupFormedEvent is the payload of a group.formed event.
type GroupFormedEvent struct {
	ProjectID    string               `json:"project_id"`
	GroupID      string               `json:"group_id"`
	Number       int                  `json:"number"`
	Name         string               `json:"name"`
	Participants []models.Participant `json:"participants"`
	Repository   string               `json:"repository_url"`
}

func (n *RealtimeNotifier) GroupFormed(_ context.Context, project *models.Project, group *models.Group) {
	if project == nil || group == nil {
		return
	}
	n.publisher.BroadcastToUser(realtime.StreamGroups, project.OwnerID, realtime.Message{
		Event: realtime.EventGroupFormed,
		Data: GroupFormedEvent{
			ProjectID:    project.ID,
			GroupID:      group.ID,
			Number:       group.Number,
			Name:         group.Name(),
			Participants: []models.Participant(group.Participants),
			Repository:   group.RepositoryURL,
		},
	})
}
