package handler

import (
	"strings"

	"kycdesk/internal/access/models"
	dErrors "kycdesk/pkg/domain-errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *loginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (r *createUserRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *createUserRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !models.Role(r.Role).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of admin, supervisor, reviewer, readonly")
	}
	return nil
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

func (r *updateUserRequest) Normalize() {
	if r.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*r.Role))
		r.Role = &role
	}
}

func (r *updateUserRequest) Validate() error {
	if r.Email == nil && r.Name == nil && r.Role == nil && r.Active == nil && r.Password == nil {
		return dErrors.New(dErrors.CodeValidation, "no changes supplied")
	}
	if r.Role != nil && !models.Role(*r.Role).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of admin, supervisor, reviewer, readonly")
	}
	if r.Password != nil && *r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	return nil
}

type updateRoleRequest struct {
	Permissions []string `json:"permissions"`
	Description *string  `json:"description"`
}

func (r *updateRoleRequest) Normalize() {}

func (r *updateRoleRequest) Validate() error {
	if r.Permissions == nil {
		return dErrors.New(dErrors.CodeValidation, "permissions is required")
	}
	return nil
}

type rolesResponse struct {
	Roles       []models.RolePermissions `json:"roles"`
	Permissions []models.PermissionInfo  `json:"permissions"`
}

type meResponse struct {
	User        models.User         `json:"user"`
	Permissions []models.Permission `json:"permissions"`
}
