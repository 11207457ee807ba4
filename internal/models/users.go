package models

import "time"

// Student is an account in the student identity space. EnrollmentNo is its
// role-specific natural key.
type Student struct {
	ID           int64     `db:"student_id" json:"student_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Contact      *string   `db:"contact" json:"contact,omitempty"`
	EnrollmentNo string    `db:"enrollment_no" json:"enrollment_no"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Faculty is an account in the faculty identity space. EmployeeID is its
// role-specific natural key.
type Faculty struct {
	ID           int64     `db:"faculty_id" json:"faculty_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Contact      *string   `db:"contact" json:"contact,omitempty"`
	Designation  *string   `db:"designation" json:"designation,omitempty"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Admin is an account in the admin identity space.
type Admin struct {
	ID           int64     `db:"admin_id" json:"admin_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Account is the capability projection shared by the three identity spaces:
// enough to authenticate and describe any actor.
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	Role         Role
}

// UserFilter captures admin-side account listing predicates.
type UserFilter struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	Limit      int
}

// StudentUpdate is a partial update request for a student account.
type StudentUpdate struct {
	Name       *string
	Department *string
	Contact    *string
	Active     *bool
}

// Empty reports whether no field was supplied.
func (u StudentUpdate) Empty() bool {
	return u.Name == nil && u.Department == nil && u.Contact == nil && u.Active == nil
}

// AdminUpdate is a partial update request for an admin account. Admin rows
// carry no department or contact columns.
type AdminUpdate struct {
	Name *string
}

// Empty reports whether no field was supplied.
func (u AdminUpdate) Empty() bool {
	return u.Name == nil
}

// FacultyUpdate is a partial update request for a faculty account.
type FacultyUpdate struct {
	Name        *string
	Department  *string
	Contact     *string
	Designation *string
	Active      *bool
}

// Empty reports whether no field was supplied.
func (u FacultyUpdate) Empty() bool {
	return u.Name == nil && u.Department == nil && u.Contact == nil && u.Designation == nil && u.Active == nil
}
