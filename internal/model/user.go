package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// DateOfBirthLayout is the DD-MM-YYYY format accepted on signup.
	DateOfBirthLayout = "02-01-2006"
)

type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	DateOfBirth  time.Time `json:"date_of_birth" db:"date_of_birth"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// AuthClaims is the verified identity carried by a session token.
type AuthClaims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// UserView is the public shape of a user returned by the API.
type UserView struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	UserType    string    `json:"user_type"`
	DateOfBirth string    `json:"dob"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u User) View() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		UserType:    u.Role,
		DateOfBirth: u.DateOfBirth.Format(time.DateOnly),
		CreatedAt:   u.CreatedAt,
	}
}

type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserView  `json:"user"`
}
