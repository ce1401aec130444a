package services

import (
	"context"
	"fmt"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
	"github.com/joshuxchn/qloo/internal/ports"
)

// Diagnostic step names, in the order they run.
const (
	StepHealth     = "health"
	StepSearch     = "search"
	StepLogin      = "login"
	StepCreateList = "create_list"
	StepAddItem    = "add_item"
)

// CheckResult is the outcome of one diagnostic step.
type CheckResult struct {
	Step    string
	OK      bool
	Skipped bool
	Detail  string
}

// DiagnosticOptions configures a diagnostic run.
type DiagnosticOptions struct {
	Email    string
	Password string
	Item     string
}

// DiagnosticsService exercises each backend call in isolation, in a fixed
// sequence, and reports per-step outcomes. It exists for operational
// debugging; it never mutates the session slot.
type DiagnosticsService struct {
	gateway ports.BackendGateway
	logger  *logger.Logger
}

// NewDiagnosticsService creates a new diagnostics service.
func NewDiagnosticsService(gateway ports.BackendGateway, appLogger *logger.Logger) *DiagnosticsService {
	return &DiagnosticsService{
		gateway: gateway,
		logger:  appLogger.WithComponent("diagnostics"),
	}
}

// Run executes health, search, login, create-list and add-item in that
// order. Steps whose inputs come from a failed earlier step are reported as
// skipped; every step appears in the report exactly once.
func (s *DiagnosticsService) Run(ctx context.Context, opts DiagnosticOptions) []CheckResult {
	results := make([]CheckResult, 0, 5)

	results = append(results, s.checkHealth(ctx))
	results = append(results, s.checkSearch(ctx, opts.Item))

	login := s.checkLogin(ctx, opts.Email, opts.Password)
	results = append(results, login.result)

	create := s.checkCreateList(ctx, login.user)
	results = append(results, create.result)

	results = append(results, s.checkAddItem(ctx, create.listID, opts.Item))

	for _, r := range results {
		s.logger.Info("Diagnostic step finished",
			"step", r.Step, "ok", r.OK, "skipped", r.Skipped, "detail", r.Detail)
	}

	return results
}

func (s *DiagnosticsService) checkHealth(ctx context.Context) CheckResult {
	health, err := s.gateway.Health(ctx)
	if err != nil {
		return CheckResult{Step: StepHealth, Detail: err.Error()}
	}
	return CheckResult{
		Step: StepHealth,
		OK:   true,
		Detail: fmt.Sprintf("status=%s database=%s kroger_api=%s",
			health.Status, health.Database, health.KrogerAPI),
	}
}

func (s *DiagnosticsService) checkSearch(ctx context.Context, item string) CheckResult {
	products, err := s.gateway.SearchProducts(ctx, item, 1)
	if err != nil {
		return CheckResult{Step: StepSearch, Detail: err.Error()}
	}
	if len(products) == 0 {
		return CheckResult{Step: StepSearch, Detail: fmt.Sprintf("no products for %q", item)}
	}
	p := products[0]
	return CheckResult{
		Step: StepSearch,
		OK:   true,
		Detail: fmt.Sprintf("%s (%s) %s, inventory %s",
			p.Name, p.Brand, entities.FormatPrice(p.Price), p.Inventory),
	}
}

type loginOutcome struct {
	result CheckResult
	user   *entities.User
}

func (s *DiagnosticsService) checkLogin(ctx context.Context, email, password string) loginOutcome {
	user, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return loginOutcome{result: CheckResult{Step: StepLogin, Detail: err.Error()}}
	}
	return loginOutcome{
		result: CheckResult{
			Step:   StepLogin,
			OK:     true,
			Detail: fmt.Sprintf("user %s (%s)", user.Username, user.ID),
		},
		user: user,
	}
}

type createOutcome struct {
	result CheckResult
	listID string
}

func (s *DiagnosticsService) checkCreateList(ctx context.Context, user *entities.User) createOutcome {
	if user == nil {
		return createOutcome{result: CheckResult{
			Step:    StepCreateList,
			Skipped: true,
			Detail:  "skipped: login failed",
		}}
	}

	list, err := s.gateway.CreateList(ctx, user.ID)
	if err != nil {
		return createOutcome{result: CheckResult{Step: StepCreateList, Detail: err.Error()}}
	}
	return createOutcome{
		result: CheckResult{
			Step:   StepCreateList,
			OK:     true,
			Detail: fmt.Sprintf("list %s", list.ID),
		},
		listID: list.ID,
	}
}

func (s *DiagnosticsService) checkAddItem(ctx context.Context, listID, item string) CheckResult {
	if listID == "" {
		return CheckResult{
			Step:    StepAddItem,
			Skipped: true,
			Detail:  "skipped: no list created",
		}
	}

	added, err := s.gateway.AddItem(ctx, listID, item, 1)
	if err != nil {
		return CheckResult{Step: StepAddItem, Detail: err.Error()}
	}
	return CheckResult{
		Step:   StepAddItem,
		OK:     true,
		Detail: fmt.Sprintf("%s x%d %s", added.Name, added.Quantity, entities.FormatPrice(added.Price)),
	}
}
