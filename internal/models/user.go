package models

// User is a project owner. The GitHub token is stored as vault ciphertext and,
// like the password hash, never leaves the service.
type User struct {
	BaseModel

	Name         string `gorm:"size:128;uniqueIndex;not null" json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`
	GitHubToken  string `gorm:"column:github_token;not null" json:"-"`

	Projects []Project `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
