package model

// Role names as stored in roles.nombre.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

// RoleIDAdmin is the roles.id assigned to users created through the
// admin panel.
const RoleIDAdmin uint8 = 2

// User represents an application user record as stored in the
// `usuarios` table joined with its role and tenant names. The json
// tags are omitted because handlers expose their own response types.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	RoleID       – foreign key into the roles table.
//	Role         – role name resolved through RoleID.
//	TenantID     – owning tenant.
//	TenantName   – owning tenant name.
type User struct {
	ID           uint64 // usuarios.id
	Name         string // usuarios.nombre
	Email        string // usuarios.email
	PasswordHash string // usuarios.password_hash
	RoleID       uint8  // usuarios.rol_id
	Role         string // roles.nombre
	TenantID     uint64 // usuarios.empresa_id
	TenantName   string // empresas.nombre
}

// Role represents a row in the `roles` table.
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.nombre
}
