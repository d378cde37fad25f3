package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAgent      = "agent"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// IsPrivileged roles may watch other agents' call traffic.
func IsPrivileged(role string) bool { return role == RoleSupervisor || role == RoleAdmin }
