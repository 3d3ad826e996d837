package model

// Role bundles the privileges a staff account carries into its token.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleCashier     = "CASHIER"
)

// DefaultRoles are created on first start. MASTER_ADMIN always comes first.
var DefaultRoles = []Role{
	{Code: RoleMasterAdmin, Name: "Master Administrator", Description: "Catalogue, stock, orders and dashboard"},
	{Code: RoleCashier, Name: "Cashier", Description: "In-store sales and order handling"},
}

// DefaultRolePrivileges returns the privilege codes a seeded role starts
// with. Unknown roles start with none.
func DefaultRolePrivileges(code string) []string {
	switch code {
	case RoleMasterAdmin:
		codes := make([]string, len(DefaultPrivileges))
		for i, p := range DefaultPrivileges {
			codes[i] = p.Code
		}
		return codes
	case RoleCashier:
		return append([]string(nil), CashierPrivileges...)
	}
	return nil
}

// RoleByCode looks up one of the default roles.
func RoleByCode(code string) (Role, bool) {
	for _, r := range DefaultRoles {
		if r.Code == code {
			return r, true
		}
	}
	return Role{}, false
}
