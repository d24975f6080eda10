package model

// CreateAdminRequest re-authenticates the acting admin with admin_email and
// admin_password.
type CreateAdminRequest struct {
	AdminEmail       string `json:"admin_email" validate:"required,email"`
	AdminPassword    string `json:"admin_password" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Name             string `json:"name" validate:"required,max=100"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	EnrollmentNumber string `json:"enrollment_number" validate:"max=32"`
}

func (r *CreateAdminRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type AssignRoleRequest struct {
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required"`
	Role          string `json:"role" validate:"required"`
}

func (r *AssignRoleRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.Role != "" && !IsValidRole(r.Role) {
		errs = append(errs, FieldError{Field: "role", Message: "role must be one of: user, moderator, admin, clubMember, cp-cym-moderator"})
	}
	return errs
}

// Dashboard counts records per collection
type Dashboard struct {
	Users         int `json:"users"`
	Events        int `json:"events"`
	Registrations int `json:"registrations"`
	Forms         int `json:"forms"`
	Submissions   int `json:"submissions"`
	Blogs         int `json:"blogs"`
	Comments      int `json:"comments"`
	Members       int `json:"members"`
	Galleries     int `json:"galleries"`
	Problems      int `json:"problems"`
	Queries       int `json:"queries"`
}
