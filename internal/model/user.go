package model

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserName     string `gorm:"size:64;uniqueIndex;not null" json:"userName"`
	FirstName    string `gorm:"size:120" json:"firstName"`
	LastName     string `gorm:"size:120" json:"lastName"`
	Email        string `gorm:"size:190" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	PasswordSalt string `gorm:"size:64;not null" json:"-"`
}

func (User) TableName() string {
	return "user"
}

// PublicUser is the truncated view of a User handed to callers. It never
// carries credential fields.
type PublicUser struct {
	ID        uint   `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// UserConfig is the registration input.
type UserConfig struct {
	UserName  string `json:"userName"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// UserUpdate lists the profile fields a user may change. Nil means unchanged.
type UserUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.Password == nil
}

// UserFields is the storage-level counterpart of UserUpdate, with the
// password already hashed.
type UserFields struct {
	FirstName    *string
	LastName     *string
	Email        *string
	PasswordHash *string
	PasswordSalt *string
}

func (f UserFields) Columns() map[string]any {
	cols := make(map[string]any)
	if f.FirstName != nil {
		cols["first_name"] = *f.FirstName
	}
	if f.LastName != nil {
		cols["last_name"] = *f.LastName
	}
	if f.Email != nil {
		cols["email"] = *f.Email
	}
	if f.PasswordHash != nil {
		cols["password_hash"] = *f.PasswordHash
	}
	if f.PasswordSalt != nil {
		cols["password_salt"] = *f.PasswordSalt
	}
	return cols
}

// Apply copies the set fields onto u.
func (f UserFields) Apply(u *User) {
	if f.FirstName != nil {
		u.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		u.LastName = *f.LastName
	}
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
	if f.PasswordSalt != nil {
		u.PasswordSalt = *f.PasswordSalt
	}
}
