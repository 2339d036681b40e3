// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
	SecurityAdmin                        // Access token of a staff user required
)

// RouteSecurityConfig maps named REST routes to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"health": SecurityPublic,

	// Auth - Public
	"auth.register": SecurityPublic,
	"auth.login":    SecurityPublic,

	// Auth - Refresh Protected
	"auth.refresh": SecurityRefresh,
	"auth.logout":  SecurityRefresh,

	// Auth - Access Protected
	"auth.profile.get":    SecurityAccess,
	"auth.profile.update": SecurityAccess,

	// Books - Public reads
	"books.list": SecurityPublic,
	"books.get":  SecurityPublic,

	// Books - Admin writes
	"books.create": SecurityAdmin,
	"books.update": SecurityAdmin,
	"books.delete": SecurityAdmin,

	// Loans - Access Protected
	"loans.borrow":  SecurityAccess,
	"loans.return":  SecurityAccess,
	"loans.history": SecurityAccess,
	"loans.active":  SecurityAccess,

	// Loans - Admin
	"admin.loans.list":    SecurityAdmin,
	"admin.loans.get":     SecurityAdmin,
	"admin.loans.refresh": SecurityAdmin,

	// Users - Admin
	"admin.users.list":       SecurityAdmin,
	"admin.users.get":        SecurityAdmin,
	"admin.users.update":     SecurityAdmin,
	"admin.users.deactivate": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAdmin
}
