package app

import "github.com/Mojahedhu/Mojahed-Store/internal/domain"

// Authorization guard: every order mutation checks the acting principal's
// relationship to the order before touching state. Violations return
// Forbidden and cause no mutation.

func requireOwner(p domain.Principal, order *domain.Order) error {
	if !order.OwnedBy(p) {
		return domain.Forbidden("you are not authorized to update this order")
	}
	return nil
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin {
		return domain.Forbidden("not authorized as an admin")
	}
	return nil
}

func requireOwnerOrAdmin(p domain.Principal, order *domain.Order) error {
	if order.OwnedBy(p) || p.IsAdmin {
		return nil
	}
	return domain.Forbidden("you are not authorized to update this order")
}
