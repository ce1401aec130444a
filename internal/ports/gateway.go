package ports

import (
	"context"

	"github.com/joshuxchn/qloo/internal/domain/entities"
)

// HealthStatus reports the backend's view of its own dependencies.
type HealthStatus struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	KrogerAPI string `json:"kroger_api"`
}

// BackendGateway defines the outbound interface to the grocery backend.
// One method per endpoint; every response is unwrapped from the shared
// {success, data, error} envelope by the implementation, so callers only
// see domain values or errors.
type BackendGateway interface {
	Health(ctx context.Context) (*HealthStatus, error)
	Login(ctx context.Context, email, password string) (*entities.User, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]entities.Product, error)
	CreateList(ctx context.Context, userID string) (*entities.GroceryList, error)
	AddItem(ctx context.Context, listID, itemName string, quantity int) (*entities.GroceryItem, error)
	UserLists(ctx context.Context, userID string) ([]entities.GroceryList, error)
}
