package models

// RoleType identifies which kind of account a Users row holds.
type RoleType string

const (
	RoleStudent            RoleType = "Student"
	RolePersonalSupervisor RoleType = "PersonalSupervisor"
	RoleSeniorTutor        RoleType = "SeniorTutor"
)

// User holds the fields shared by every account in the Users table.
// The password is an opaque credential blob (bcrypt hash); the security
// question/answer pair backs the password-recovery flow.
type User struct {
	ID               int64  `db:"Id"`
	Username         string `db:"Username" validate:"required"`
	Name             string `db:"Name" validate:"required"`
	Password         string `db:"Password" validate:"required"`
	SecurityQuestion string `db:"SecurityQuestion"`
	SecurityAnswer   string `db:"SecurityAnswer"`
}
