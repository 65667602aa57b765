package domain

import (
	"strings"

	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

const (
	defaultAccessLevel        = "User"
	defaultProjectAccessLevel = "Basic"
	defaultContactValue       = "N/A"
	usernamePrefix            = "User_"
	usernameIDLength          = 6
	defaultInitials           = "BM"
)

// FeedbackEntry is one append-only rating left by the profile owner.
type FeedbackEntry struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Date   string `json:"date"`
}

// Validate checks rating range and text presence.
func (f FeedbackEntry) Validate() error {
	if strings.TrimSpace(f.Text) == "" || f.Rating == 0 {
		return apperrors.NewValidationError("please provide feedback text and a rating (at least one star)", nil)
	}
	if f.Rating < 1 || f.Rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"field": "rating"})
	}
	return nil
}

// Profile is the single per-user profile document.
type Profile struct {
	Username           string          `json:"username"`
	ContactNumber      string          `json:"contactNumber"`
	Email              string          `json:"email"`
	Department         string          `json:"department"`
	RealName           string          `json:"realName"`
	AccessLevel        string          `json:"accessLevel"`
	ProjectAccessLevel string          `json:"projectAccessLevel"`
	Feedback           []FeedbackEntry `json:"feedback"`
}

// DefaultProfile is written the first time a user's profile is observed absent.
func DefaultProfile(userID string) Profile {
	return Profile{
		Username:           DefaultUsername(userID),
		ContactNumber:      defaultContactValue,
		Email:              defaultContactValue,
		Department:         defaultContactValue,
		RealName:           "",
		AccessLevel:        defaultAccessLevel,
		ProjectAccessLevel: defaultProjectAccessLevel,
		Feedback:           []FeedbackEntry{},
	}
}

// DefaultUsername derives User_<first six characters of the id>.
func DefaultUsername(userID string) string {
	prefix := []rune(userID)
	if len(prefix) > usernameIDLength {
		prefix = prefix[:usernameIDLength]
	}
	return usernamePrefix + string(prefix)
}

// Initials returns the two-letter badge shown for a user.
func Initials(userID string) string {
	if userID == "" {
		return defaultInitials
	}
	runes := []rune(userID)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// Validate enforces the profile schema before a write.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return apperrors.NewValidationError("username is required", map[string]any{"field": "username"})
	}
	for _, entry := range p.Feedback {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Check is the read-side rule for a stored profile.
func (p Profile) Check() error {
	return p.Validate()
}

// ProfileUpdate carries the editable profile fields. Department and
// feedback are not editable through it.
type ProfileUpdate struct {
	Username           string
	ContactNumber      string
	Email              string
	RealName           string
	AccessLevel        string
	ProjectAccessLevel string
}

// Validate checks the editable fields.
func (u ProfileUpdate) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return apperrors.NewValidationError("username is required", map[string]any{"field": "username"})
	}
	return nil
}

// Fields maps the update onto stored field names.
func (u ProfileUpdate) Fields() map[string]any {
	return map[string]any{
		"username":           strings.TrimSpace(u.Username),
		"contactNumber":      u.ContactNumber,
		"email":              u.Email,
		"realName":           u.RealName,
		"accessLevel":        u.AccessLevel,
		"projectAccessLevel": u.ProjectAccessLevel,
	}
}
