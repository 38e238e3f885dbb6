package domain

// Roles carried in access tokens
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the authenticated principal extracted from a bearer token
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user may manage events and judge submissions
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthClaims represents JWT token claims
type AuthClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Iss   string `json:"iss"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}
