package auth

import (
	"github.com/EgorLis/asset-catalog/internal/domain"
)

// Authorize решает, может ли проверенная личность выполнить действие с требуемой ролью.
// Админ может всё; для остальных роль должна совпадать.
func Authorize(id domain.Identity, required domain.Role) error {
	if id.Role == "" {
		return domain.ErrUnauth
	}
	if id.Role == domain.RoleAdmin || id.Role == required {
		return nil
	}
	return domain.ErrForbidden
}
