package model

type Role string

const (
	RoleResident     Role = "resident"
	RoleCarrier      Role = "carrier"
	RoleUnregistered Role = "unregistered"
)

// RegisteredUser is a known person. Residents own a tag that marks their
// packages; carriers deliver and are identified only by recognition.
type RegisteredUser struct {
	Name  string `yaml:"name" json:"name" validate:"required,min=1,max=100"`
	Tag   string `yaml:"tag" json:"tag,omitempty" validate:"required_if=Role resident,max=64"`
	Email string `yaml:"email" json:"email,omitempty" validate:"omitempty,email"`
	Role  Role   `yaml:"role" json:"role" validate:"required,oneof=resident carrier"`
}

func (u RegisteredUser) Registered() bool {
	return u.Role == RoleResident || u.Role == RoleCarrier
}
