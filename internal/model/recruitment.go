package model

import "time"

// RecruitmentRole is an open team position
type RecruitmentRole struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Image      string       `json:"image"`
	GoogleForm string       `json:"google_form"`
	IsOpen     bool         `json:"is_open"`
	Leader     RoleLeader   `json:"leader"`
	Members    []RoleMember `json:"members"`
	CreatedOn  time.Time    `json:"created_on"`
	UpdatedOn  time.Time    `json:"updated_on"`
}

type RoleLeader struct {
	Name     string `json:"name" validate:"required,max=100"`
	Linkedin string `json:"linkedin" validate:"required,url"`
}

// RoleMember is a current member of a role's team. ID is assigned on add.
type RoleMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Linkedin string `json:"linkedin"`
}

// RecruitmentOverview is the public listing
type RecruitmentOverview struct {
	IsOpen bool               `json:"is_open"`
	Roles  []*RecruitmentRole `json:"roles"`
}

type RecruitmentRoleRequest struct {
	Title      string     `json:"title" validate:"required,max=100"`
	Image      string     `json:"image" validate:"required"`
	GoogleForm string     `json:"google_form" validate:"required,url"`
	IsOpen     bool       `json:"is_open"`
	Leader     RoleLeader `json:"leader"`
}

func (r *RecruitmentRoleRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type UpdateLeaderRequest struct {
	Leader RoleLeader `json:"leader"`
}

func (r *UpdateLeaderRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type AddRoleMemberRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Linkedin string `json:"linkedin" validate:"required,url"`
}

func (r *AddRoleMemberRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type RecruitmentStatusRequest struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

func (r *RecruitmentStatusRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
