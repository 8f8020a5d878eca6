package domain

// Caller roles carried in JWT claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
