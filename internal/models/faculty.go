package models

import "time"

const (
	RoleFaculty   = "faculty"
	RoleHOD       = "hod"
	RolePrincipal = "principal"
	RoleAdmin     = "admin"
)

// Department groups faculty under one head of department.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	HODID     *uint     `json:"hod_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Faculty is a staff member who submits or reviews appraisals. ID matches the
// user id carried in access tokens.
type Faculty struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Designation  string    `gorm:"size:128" json:"designation"`
	DepartmentID *uint     `gorm:"index" json:"department_id"`
	Role         string    `gorm:"size:16;not null;default:faculty" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsHOD reports whether the faculty member heads a department.
func (f Faculty) IsHOD() bool {
	return f.Role == RoleHOD
}
