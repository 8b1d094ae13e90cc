package models

// NoDescription is displayed in place of an absent project description.
const NoDescription = "no description"

// Project is an assignment an owner opens to self-organising groups.
type Project struct {
	BaseModel

	OwnerID     string  `gorm:"size:36;not null;index" json:"owner_id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Org         string  `gorm:"size:100" json:"org"`
	Description *string `json:"description"`
	MinPeople   int     `gorm:"not null" json:"min_people"`
	MaxPeople   int     `gorm:"not null" json:"max_people"`

	// InviteToken is generated once at creation and never rotated.
	InviteToken string `gorm:"size:64;not null;uniqueIndex" json:"invite_token"`

	// NextGroupNumber is only ever changed through an atomic increment.
	NextGroupNumber int `gorm:"not null" json:"-"`

	Groups []Group `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
}

// DisplayDescription returns the description or the NoDescription placeholder.
func (p *Project) DisplayDescription() string {
	if p == nil || p.Description == nil || *p.Description == "" {
		return NoDescription
	}
	return *p.Description
}
