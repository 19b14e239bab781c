package user

// User represents a user entity in the system.
type User struct {
	ID       string // ID is assigned by the store and never changes
	Name     string // Name is the full name of the user
	Email    string // Email is the unique email address of the user
	Age      int    // Age in years
	IsActive bool   // IsActive marks whether the account is enabled
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	Age      *int
	IsActive *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil && p.IsActive == nil
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	return u
}
