package domain

import "time"

// IdentitySource records how an identity was established.
type IdentitySource string

const (
	IdentitySourceToken     IdentitySource = "TOKEN"
	IdentitySourceAnonymous IdentitySource = "ANONYMOUS"
)

// Identity is the resolved user of this process.
type Identity struct {
	UserID     string
	Source     IdentitySource
	ResolvedAt time.Time
}

// Anonymous reports whether the identity was established without a credential.
func (i Identity) Anonymous() bool {
	return i.Source == IdentitySourceAnonymous
}
