package user

import "time"

// User is one account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Email        string
	Username     string
	FullName     *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser is the input for Insert; ID and timestamps are assigned by the repository.
type NewUser struct {
	Email        string
	Username     string
	FullName     *string
	PasswordHash string
}

// ProfileUpdate carries the optional fields of a profile change. Nil means unchanged.
type ProfileUpdate struct {
	Username *string
	FullName *string
}

func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.FullName == nil
}

// Public is the serialized form of a user. It has no credential fields.
type Public struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
