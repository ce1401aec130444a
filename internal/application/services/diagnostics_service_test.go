package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
	"github.com/joshuxchn/qloo/internal/ports"
)

var diagOpts = DiagnosticOptions{
	Email:    "debug@test.com",
	Password: "debug123",
	Item:     "milk",
}

func stepNames(results []CheckResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Step
	}
	return names
}

func TestDiagnosticsRunsFullSequence(t *testing.T) {
	gw := &fakeGateway{
		health:      &ports.HealthStatus{Status: "healthy", Database: "connected", KrogerAPI: "connected"},
		loginUser:   testUser,
		products:    []entities.Product{testProduct()},
		createdList: &entities.GroceryList{ID: "list-1", UserID: testUser.ID},
		addedItem:   &entities.GroceryItem{Name: "Whole Milk", Price: fp(3.49), Quantity: 1},
	}
	svc := NewDiagnosticsService(gw, logger.NewNop())

	results := svc.Run(context.Background(), diagOpts)

	require.Equal(t,
		[]string{StepHealth, StepSearch, StepLogin, StepCreateList, StepAddItem},
		stepNames(results))
	assert.Equal(t,
		[]string{"health", "search", "login", "create_list", "add_item"},
		gw.recorded(), "backend calls run in the documented order")

	for _, r := range results {
		assert.True(t, r.OK, "step %s should pass: %s", r.Step, r.Detail)
		assert.False(t, r.Skipped)
	}
}

func TestDiagnosticsLoginFailureSkipsListSteps(t *testing.T) {
	gw := &fakeGateway{
		health:   &ports.HealthStatus{Status: "healthy"},
		products: []entities.Product{testProduct()},
		loginErr: errors.New("Failed to authenticate or create user"),
	}
	svc := NewDiagnosticsService(gw, logger.NewNop())

	results := svc.Run(context.Background(), diagOpts)

	require.Len(t, results, 5, "every step appears in the report")
	assert.False(t, results[2].OK)
	assert.True(t, results[3].Skipped)
	assert.True(t, results[4].Skipped)
	assert.Equal(t, []string{"health", "search", "login"}, gw.recorded(),
		"list calls are not attempted without a user")
}

func TestDiagnosticsHealthFailureDoesNotAbort(t *testing.T) {
	gw := &fakeGateway{
		healthErr:   errors.New("network error: connection refused"),
		loginUser:   testUser,
		products:    []entities.Product{testProduct()},
		createdList: &entities.GroceryList{ID: "list-1", UserID: testUser.ID},
		addedItem:   &entities.GroceryItem{Name: "Whole Milk", Quantity: 1},
	}
	svc := NewDiagnosticsService(gw, logger.NewNop())

	results := svc.Run(context.Background(), diagOpts)

	require.Len(t, results, 5)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Detail, "connection refused")
	assert.True(t, results[4].OK, "later steps still run after a health failure")
}

func TestDiagnosticsEmptySearchReportsFailure(t *testing.T) {
	gw := &fakeGateway{
		health:      &ports.HealthStatus{Status: "healthy"},
		loginUser:   testUser,
		createdList: &entities.GroceryList{ID: "list-1", UserID: testUser.ID},
		addedItem:   &entities.GroceryItem{Name: "Whole Milk", Quantity: 1},
	}
	svc := NewDiagnosticsService(gw, logger.NewNop())

	results := svc.Run(context.Background(), diagOpts)

	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Detail, "milk")
}
