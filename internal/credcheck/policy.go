package credcheck

// Policy supplies the default-disposition rule consulted on Exhausted:
// RequireCredentials() true fails the container, false passes it.
type Policy interface {
	RequireCredentials() bool
}

// StrictPolicy requires at least one Accept; a container that exhausts
// its footers without one fails.
type StrictPolicy struct{}

// RequireCredentials implements Policy.
func (StrictPolicy) RequireCredentials() bool { return true }

// PermissivePolicy lets a container with no decisive credential pass,
// e.g. one whose footers are all Reserved-type records.
type PermissivePolicy struct{}

// RequireCredentials implements Policy.
func (PermissivePolicy) RequireCredentials() bool { return false }
