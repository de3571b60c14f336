package domain

// Identity is the authenticated caller resolved by the auth layer.
type Identity struct {
	UserID   string
	TenantID string
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id.UserID == "" && id.TenantID == ""
}
