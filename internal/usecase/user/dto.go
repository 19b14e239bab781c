package user

// CreateUserRequest represents the request payload for creating a new user.
// Age is a pointer so that zero is a valid, present value.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80,personname"`
	Email    string `json:"email" validate:"required,email"`
	Age      *int   `json:"age" validate:"required,gte=0"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUserRequest represents a partial update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	ID       string  `json:"-"`
	Name     *string `json:"name" validate:"omitnil,min=2,max=80,personname"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Age      *int    `json:"age" validate:"omitnil,gte=0"`
	IsActive *bool   `json:"is_active"`
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// ListUsersRequest represents the request payload for listing users.
// Bounds on Page and Limit are enforced by validation, not clamped.
type ListUsersRequest struct {
	Query    string `json:"q" validate:"max=100"`
	MinAge   *int   `json:"min_age" validate:"omitnil,gte=0"`
	MaxAge   *int   `json:"max_age" validate:"omitnil,gte=0"`
	IsActive *bool  `json:"is_active"`
	Page     int64  `json:"page" validate:"gte=1"`
	Limit    int64  `json:"limit" validate:"gte=1,lte=100"`
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users      []User
	Pagination *Pagination
}

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64
	Page       int64
	Limit      int64
	TotalPages int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID       string
	Name     string
	Email    string
	Age      int
	IsActive bool
}
