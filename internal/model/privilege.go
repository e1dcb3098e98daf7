package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "opname:count"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Count Opname Items"
}

// Privilege codes checked by route guards
const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"
	PrivProductView         = "product:view"
	PrivProductCreate       = "product:create"
	PrivProductUpdate       = "product:update"
	PrivProductDelete       = "product:delete"
	PrivDashboardView       = "dashboard:view"
	PrivOpnameView          = "opname:view"
	PrivOpnameCreate        = "opname:create"
	PrivOpnameCount         = "opname:count"
	PrivOpnameComplete      = "opname:complete"
	PrivOpnameExport        = "opname:export"
	PrivOpnameDelete        = "opname:delete"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	// Product catalog
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Dashboard
	{Code: PrivDashboardView, Name: "View Dashboard"},
	// Stock opname
	{Code: PrivOpnameView, Name: "View Opname"},
	{Code: PrivOpnameCreate, Name: "Start Opname"},
	{Code: PrivOpnameCount, Name: "Count Opname Items"},
	{Code: PrivOpnameComplete, Name: "Complete Opname"},
	{Code: PrivOpnameExport, Name: "Export Opname"},
	{Code: PrivOpnameDelete, Name: "Delete Opname"},
}

// StaffPrivileges is what a counting staff member gets
var StaffPrivileges = []string{
	PrivProductView,
	PrivOpnameView,
	PrivOpnameCount,
}

// userManagementPrivileges are withheld from ADMIN
var userManagementPrivileges = map[string]bool{
	PrivUserCreate:          true,
	PrivUserUpdate:          true,
	PrivUserDelete:          true,
	PrivUserUpdatePrivilege: true,
}

func IsUserManagementPrivilege(code string) bool {
	return userManagementPrivileges[code]
}
