package domain

import "fmt"

// ProfileDocumentID names the single document in a user's profile collection.
const ProfileDocumentID = "myProfile"

// TicketsPath is the owner scope collection holding a user's tickets.
func TicketsPath(tenantID, userID string) string {
	return fmt.Sprintf("tenants/%s/users/%s/tickets", tenantID, userID)
}

// ProfilePath is the document path of a user's profile.
func ProfilePath(tenantID, userID string) string {
	return fmt.Sprintf("tenants/%s/users/%s/profile/%s", tenantID, userID, ProfileDocumentID)
}
