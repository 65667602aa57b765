package dto

import (
	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/session"
)

// MeResponse describes the signed-in user.
type MeResponse struct {
	UserID    string `json:"user_id"`
	Initials  string `json:"initials"`
	Anonymous bool   `json:"anonymous"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	Username           string `json:"username"`
	ContactNumber      string `json:"contact_number"`
	Email              string `json:"email"`
	RealName           string `json:"real_name"`
	AccessLevel        string `json:"access_level"`
	ProjectAccessLevel string `json:"project_access_level"`
}

// ToDomain converts the request to a profile update.
func (r UpdateProfileRequest) ToDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Username:           r.Username,
		ContactNumber:      r.ContactNumber,
		Email:              r.Email,
		RealName:           r.RealName,
		AccessLevel:        r.AccessLevel,
		ProjectAccessLevel: r.ProjectAccessLevel,
	}
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// FeedbackResponse is one stored feedback entry.
type FeedbackResponse struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Date   string `json:"date"`
}

// ProfileResponse payload.
type ProfileResponse struct {
	Username           string             `json:"username"`
	ContactNumber      string             `json:"contact_number"`
	Email              string             `json:"email"`
	Department         string             `json:"department"`
	RealName           string             `json:"real_name"`
	AccessLevel        string             `json:"access_level"`
	ProjectAccessLevel string             `json:"project_access_level"`
	Feedback           []FeedbackResponse `json:"feedback"`
	Status             ViewStatus         `json:"status"`
}

// NewProfileResponse maps a profile snapshot.
func NewProfileResponse(p domain.Profile, status session.ViewStatus) ProfileResponse {
	feedback := make([]FeedbackResponse, 0, len(p.Feedback))
	for _, f := range p.Feedback {
		feedback = append(feedback, FeedbackResponse{Rating: f.Rating, Text: f.Text, Date: f.Date})
	}
	return ProfileResponse{
		Username:           p.Username,
		ContactNumber:      p.ContactNumber,
		Email:              p.Email,
		Department:         p.Department,
		RealName:           p.RealName,
		AccessLevel:        p.AccessLevel,
		ProjectAccessLevel: p.ProjectAccessLevel,
		Feedback:           feedback,
		Status:             NewViewStatus(status),
	}
}
