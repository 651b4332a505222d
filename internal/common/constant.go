package common

// Role names seeded at startup and carried in token claims.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)
