package models

// Account is implemented by every actor kind that can log in.
type Account interface {
	AccountID() uint
	AccountKind() string
	HashedPassword() string
	IsActive() bool
}

const (
	KindCustomer   = "customer"
	KindBusiness   = "business"
	KindReseller   = "reseller"
	KindSuperAdmin = "superadmin"
)
