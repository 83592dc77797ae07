package models

// Roles a profile can hold. Exactly one of the two.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Profile mirrors the authentication identity. Read-mostly; written only at
// registration and refreshed by downlink sync.
type Profile struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Class    int    `json:"class" gorm:"index"`
}
