package models

import (
	"strconv"

	"gorm.io/datatypes"
)

// Participant is a group member as submitted on the public form.
type Participant struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Group is a set of participants sharing one provisioned repository.
type Group struct {
	BaseModel

	ProjectID    string                           `gorm:"size:36;not null;uniqueIndex:idx_groups_project_number" json:"project_id"`
	Number       int                              `gorm:"not null;uniqueIndex:idx_groups_project_number" json:"number"`
	Participants datatypes.JSONSlice[Participant] `json:"participants"`

	RepositoryURL      string `gorm:"size:512" json:"repository_url"`
	RepositoryFullName string `gorm:"size:255" json:"repository_full_name"`
	// Collaborators maps each username to the outcome of its invitation.
	Collaborators datatypes.JSONMap `json:"collaborators"`
}

// Name is the display label of the group.
func (g *Group) Name() string {
	return "Group " + strconv.Itoa(g.Number)
}
