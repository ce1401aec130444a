package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
	"github.com/joshuxchn/qloo/internal/ports"
)

// Placeholder display values until the backend enriches items with category
// and store data.
const (
	placeholderCategory = "pending"
	defaultStore        = "Kroger"
)

// BootstrapState is the outcome of loading session and list state.
// NeedsAuth is a terminal signal, not an error: the caller should route the
// user to authentication and make no further list calls.
type BootstrapState struct {
	NeedsAuth bool
	User      *entities.User
	List      *entities.GroceryList
	Items     []entities.DisplayItem
}

// ListService owns the client-side view of the current user, the current
// grocery list and the items projected for display. It mediates every list
// operation against the backend and never lets a backend failure escape as
// anything other than an error value.
type ListService struct {
	gateway ports.BackendGateway
	session ports.SessionStore
	logger  *logger.Logger

	// adding guards against concurrent add operations; a second add while
	// one is in flight is rejected at the entry, not queued.
	adding atomic.Bool

	mu            sync.Mutex
	user          *entities.User
	currentListID string
	items         []entities.DisplayItem
	lastError     string
}

// NewListService creates a new list service.
func NewListService(gateway ports.BackendGateway, session ports.SessionStore, appLogger *logger.Logger) *ListService {
	return &ListService{
		gateway: gateway,
		session: session,
		logger:  appLogger.WithComponent("list_service"),
	}
}

// Bootstrap loads the persisted user and, when present, the user's lists.
// With no stored user it returns a NeedsAuth state and performs zero network
// calls. A list-fetch failure is surfaced as the returned error and in the
// last-error slot, but the state stays usable so an empty list can render.
func (s *ListService) Bootstrap(ctx context.Context) (*BootstrapState, error) {
	s.setLastError("")

	user, err := s.session.Load()
	if err != nil {
		s.logger.Warn("Session unreadable, treating as signed out", "error", err)
	}
	if user == nil {
		return &BootstrapState{NeedsAuth: true}, nil
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	state := &BootstrapState{User: user, Items: []entities.DisplayItem{}}

	lists, err := s.gateway.UserLists(ctx, user.ID)
	if err != nil {
		s.setLastError(err.Error())
		return state, fmt.Errorf("failed to fetch lists: %w", err)
	}

	if len(lists) == 0 {
		// Deferred creation: the current list is established on first add.
		s.logger.Info("No existing lists for user", "user_id", user.ID)
		return state, nil
	}

	current := lists[0]
	items := projectList(current)

	s.mu.Lock()
	s.currentListID = current.ID
	s.items = items
	s.mu.Unlock()

	state.List = &current
	state.Items = append([]entities.DisplayItem(nil), items...)

	s.logger.Info("Bootstrapped from existing list",
		"user_id", user.ID,
		"list_id", current.ID,
		"items", len(items),
	)

	return state, nil
}

// AddItem resolves a free-text name against the catalog and appends the
// matched product to the current list, creating the list first when none is
// held. Empty input, a missing user, or an already in-flight add are silent
// no-ops returning (nil, nil). The pipeline is strictly ordered:
// ensure-list, then resolve-product, then persist-item, each stage
// short-circuiting on failure with no local mutation.
func (s *ListService) AddItem(ctx context.Context, rawName string) (*entities.DisplayItem, error) {
	name := strings.TrimSpace(rawName)

	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if name == "" || user == nil {
		return nil, nil
	}

	if !s.adding.CompareAndSwap(false, true) {
		s.logger.Debug("Add already in flight, ignoring", "name", name)
		return nil, nil
	}
	defer s.adding.Store(false)

	s.setLastError("")

	listID, err := s.ensureList(ctx, user.ID)
	if err != nil {
		s.setLastError(err.Error())
		return nil, err
	}

	product, err := s.resolveProduct(ctx, name)
	if err != nil {
		s.setLastError(err.Error())
		return nil, err
	}

	if _, err := s.persistItem(ctx, listID, name); err != nil {
		s.setLastError(err.Error())
		return nil, err
	}

	item := projectProduct(*product)

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.logger.Info("Item added",
		"list_id", listID,
		"name", product.Name,
		"upc", product.UPC,
	)

	return &item, nil
}

// ensureList returns the current list id, creating a new list for the user
// when none is held yet. At most one list is created per session.
func (s *ListService) ensureList(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	listID := s.currentListID
	s.mu.Unlock()

	if listID != "" {
		return listID, nil
	}

	list, err := s.gateway.CreateList(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrListCreation, err)
	}

	s.mu.Lock()
	s.currentListID = list.ID
	s.mu.Unlock()

	s.logger.Info("Created grocery list", "list_id", list.ID, "user_id", userID)
	return list.ID, nil
}

// resolveProduct maps a free-text name to a single catalog product. Zero
// matches fail with an error naming the original input.
func (s *ListService) resolveProduct(ctx context.Context, name string) (*entities.Product, error) {
	products, err := s.gateway.SearchProducts(ctx, name, 1)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %q", entities.ErrProductNotFound, name)
	}

	return &products[0], nil
}

// persistItem asks the backend to append the item to the list. Only after
// this confirms does any local state change.
func (s *ListService) persistItem(ctx context.Context, listID, name string) (*entities.GroceryItem, error) {
	item, err := s.gateway.AddItem(ctx, listID, name, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrItemAppend, err)
	}
	return item, nil
}

// RemoveItem drops an item from the display list by id. The backend exposes
// no removal endpoint, so this stays client-local.
func (s *ListService) RemoveItem(id string) {
	s.setLastError("")

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

// ComputeTotals sums the display price of every item and the savings of
// every promoted item. Defined for any input, including empty.
func ComputeTotals(items []entities.DisplayItem) entities.Totals {
	var totals entities.Totals
	for _, item := range items {
		totals.TotalCost += item.Price
		totals.TotalSavings += item.Savings()
	}
	return totals
}

// Items returns a copy of the current display list.
func (s *ListService) Items() []entities.DisplayItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.DisplayItem(nil), s.items...)
}

// CurrentListID returns the id of the list this session appends to, or ""
// when no list has been discovered or created yet.
func (s *ListService) CurrentListID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentListID
}

// User returns the bootstrapped user, or nil before Bootstrap succeeds.
func (s *ListService) User() *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// LastError returns the message of the most recent failure. Starting any
// new operation clears it.
func (s *ListService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *ListService) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// projectList maps a persisted list into display items.
func projectList(list entities.GroceryList) []entities.DisplayItem {
	items := make([]entities.DisplayItem, 0, len(list.Items))
	for _, item := range list.Items {
		var price float64
		if item.Price != nil {
			price = *item.Price
		}
		items = append(items, entities.DisplayItem{
			ID:       uuid.NewString(),
			Name:     item.Name,
			Category: placeholderCategory,
			Price:    price,
			UPC:      item.UPC,
			Store:    defaultStore,
			InStock:  true,
		})
	}
	return items
}

// projectProduct maps a resolved catalog product into a display item. The
// display price is the promo price when one exists, with the regular price
// kept as OriginalPrice so the discount can be shown.
func projectProduct(product entities.Product) entities.DisplayItem {
	item := entities.DisplayItem{
		ID:       uuid.NewString(),
		Name:     product.Name,
		Category: placeholderCategory,
		UPC:      product.UPC,
		Store:    defaultStore,
		InStock:  product.Inventory.InStock(),
	}

	switch {
	case product.PromoPrice != nil && product.Price != nil:
		item.Price = *product.PromoPrice
		item.OriginalPrice = product.Price
	case product.PromoPrice != nil:
		item.Price = *product.PromoPrice
	case product.Price != nil:
		item.Price = *product.Price
	}

	return item
}
