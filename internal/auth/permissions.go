// Package auth holds the static role catalog and the Principal capability
// set that every use case receives from the transport layer.
package auth

import "sort"

// Permission is a single capability checked by use cases.
type Permission string

const (
	ViewReservations  Permission = "VIEW_RESERVATIONS"
	CreateReservation Permission = "CREATE_RESERVATION"
	UpdateReservation Permission = "UPDATE_RESERVATION"
	CancelReservation Permission = "CANCEL_RESERVATION"

	ViewOrders  Permission = "VIEW_ORDERS"
	CreateOrder Permission = "CREATE_ORDER"
	UpdateOrder Permission = "UPDATE_ORDER"
	ManageMenu  Permission = "MANAGE_MENU"

	ViewStock       Permission = "VIEW_STOCK"
	UpdateStock     Permission = "UPDATE_STOCK"
	ManageSuppliers Permission = "MANAGE_SUPPLIERS"
	PlacePurchases  Permission = "PLACE_PURCHASES"

	ViewAccounting   Permission = "VIEW_ACCOUNTING"
	UpdateAccounting Permission = "UPDATE_ACCOUNTING"
	GenerateReports  Permission = "GENERATE_REPORTS"

	ViewSettings    Permission = "VIEW_SETTINGS"
	UpdateSettings  Permission = "UPDATE_SETTINGS"
	ManageEmployees Permission = "MANAGE_EMPLOYEES"
	ViewEmployees   Permission = "VIEW_EMPLOYEES"
)

// Role names of the static catalog.
const (
	RoleReception   = "RECEPTION"
	RoleRestaurant  = "RESTAURANT"
	RoleStorekeeper = "STOREKEEPER"
	RoleAccountant  = "ACCOUNTANT"
	RoleManager     = "MANAGER"
)

// Role is a named bundle of permissions.
type Role struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

var catalog = func() map[string]Role {
	reception := []Permission{ViewReservations, CreateReservation, UpdateReservation, CancelReservation, ViewSettings}
	restaurant := []Permission{ViewOrders, CreateOrder, UpdateOrder, ManageMenu, ViewSettings}
	storekeeper := []Permission{ViewStock, UpdateStock, ManageSuppliers, PlacePurchases, ViewSettings}
	accountant := []Permission{ViewAccounting, UpdateAccounting, GenerateReports, ViewSettings}

	manager := []Permission{UpdateSettings, ManageEmployees, ViewEmployees}
	seen := map[Permission]bool{}
	for _, p := range manager {
		seen[p] = true
	}
	for _, set := range [][]Permission{reception, restaurant, storekeeper, accountant} {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				manager = append(manager, p)
			}
		}
	}

	return map[string]Role{
		RoleReception:   {Name: RoleReception, Description: "Front desk: reservations and guests", Permissions: reception},
		RoleRestaurant:  {Name: RoleRestaurant, Description: "Restaurant: orders and menu", Permissions: restaurant},
		RoleStorekeeper: {Name: RoleStorekeeper, Description: "Storekeeper: stock and purchases", Permissions: storekeeper},
		RoleAccountant:  {Name: RoleAccountant, Description: "Accounting: ledger and reports", Permissions: accountant},
		RoleManager:     {Name: RoleManager, Description: "Manager: every operational permission", Permissions: manager},
	}
}()

// LookupRole returns the catalog entry for name.
func LookupRole(name string) (Role, bool) {
	r, ok := catalog[name]
	return r, ok
}

// Roles lists the catalog sorted by name.
func Roles() []Role {
	out := make([]Role, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PermissionsFor resolves the union of permissions granted by roles.
// Unknown role names are ignored.
func PermissionsFor(roles []string) []Permission {
	seen := map[Permission]bool{}
	var out []Permission
	for _, name := range roles {
		r, ok := catalog[name]
		if !ok {
			continue
		}
		for _, p := range r.Permissions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
