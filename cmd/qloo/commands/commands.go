package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuxchn/qloo/internal/adapters/backend"
	"github.com/joshuxchn/qloo/internal/adapters/session"
	"github.com/joshuxchn/qloo/internal/application/services"
	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/config"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
)

// app bundles the wired services every command needs.
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	gateway *backend.Client
	auth    *services.AuthService
	lists   *services.ListService
	diag    *services.DiagnosticsService
}

func newApp() *app {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	gateway := backend.New(cfg.API, appLogger)
	store := session.New(cfg.Session)

	return &app{
		cfg:     cfg,
		logger:  appLogger,
		gateway: gateway,
		auth:    services.NewAuthService(gateway, store, appLogger),
		lists:   services.NewListService(gateway, store, appLogger),
		diag:    services.NewDiagnosticsService(gateway, appLogger),
	}
}

func (a *app) close() {
	_ = a.logger.Close()
}

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			if email == "" || password == "" {
				log.Fatal("Email and password are required")
			}

			a := newApp()
			defer a.close()

			user, err := a.auth.Login(context.Background(), email, password)
			if err != nil {
				log.Fatalf("Login failed: %v", err)
			}

			fmt.Printf("Signed in as %s (%s)\n", user.Username, user.Email)
			if user.PreferredLocation != "" {
				fmt.Printf("Preferred store location: %s\n", user.PreferredLocation)
			}
		},
	}

	cmd.Flags().String("email", "", "Account email (required)")
	cmd.Flags().String("password", "", "Account password (required)")
	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp()
			defer a.close()

			if err := a.auth.Logout(); err != nil {
				log.Fatalf("Logout failed: %v", err)
			}
			fmt.Println("Signed out")
		},
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp()
			defer a.close()

			user, err := a.auth.CurrentUser()
			if err != nil {
				log.Fatalf("Failed to read session: %v", err)
			}
			if user == nil {
				fmt.Println("Not signed in")
				return
			}
			fmt.Printf("%s (%s)\n", user.Username, user.Email)
			fmt.Printf("  ID: %s\n", user.ID)
			if user.PreferredLocation != "" {
				fmt.Printf("  Location: %s\n", user.PreferredLocation)
			}
		},
	}
}

// NewSearchCommand creates the product search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the product catalog",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			query := strings.Join(args, " ")

			a := newApp()
			defer a.close()

			if limit <= 0 {
				limit = a.cfg.API.SearchLimit
			}

			products, err := a.gateway.SearchProducts(context.Background(), query, limit)
			if err != nil {
				log.Fatalf("Search failed: %v", err)
			}
			if len(products) == 0 {
				fmt.Printf("No products found for %q\n", query)
				return
			}

			for _, p := range products {
				printProduct(p)
			}
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum results (default from config)")
	return cmd
}

// NewListCommand creates the list command with subcommands
func NewListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Grocery list commands",
		Long:  "Show the current grocery list and add or remove items",
	}

	listCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current grocery list",
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp()
			defer a.close()

			state := mustBootstrap(a)
			printItems(state.Items)
		},
	})

	listCmd.AddCommand(&cobra.Command{
		Use:   "add <item>",
		Short: "Resolve an item against the catalog and add it to the list",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := strings.Join(args, " ")

			a := newApp()
			defer a.close()

			mustBootstrap(a)

			item, err := a.lists.AddItem(context.Background(), name)
			if err != nil {
				log.Fatalf("Add failed: %v", err)
			}
			if item == nil {
				fmt.Println("Nothing to add")
				return
			}

			fmt.Printf("Added %s ($%.2f)\n", item.Name, item.Price)
			if item.OriginalPrice != nil {
				fmt.Printf("  On promotion, regular price $%.2f\n", *item.OriginalPrice)
			}
			printItems(a.lists.Items())
		},
	})

	listCmd.AddCommand(&cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item from the local display list",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := newApp()
			defer a.close()

			mustBootstrap(a)

			before := len(a.lists.Items())
			a.lists.RemoveItem(args[0])
			after := len(a.lists.Items())

			if after == before {
				fmt.Printf("No item with id %s\n", args[0])
				return
			}
			printItems(a.lists.Items())
		},
	})

	return listCmd
}

// NewCheckCommand creates the diagnostics command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run backend diagnostics",
		Long:  "Invoke each backend call in sequence (health, search, login, create list, add item) and report per-step results",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			item, _ := cmd.Flags().GetString("item")

			a := newApp()
			defer a.close()

			results := a.diag.Run(context.Background(), services.DiagnosticOptions{
				Email:    email,
				Password: password,
				Item:     item,
			})

			failed := 0
			for _, r := range results {
				mark := "ok"
				switch {
				case r.Skipped:
					mark = "skip"
				case !r.OK:
					mark = "FAIL"
					failed++
				}
				fmt.Printf("%-12s [%s] %s\n", r.Step, mark, r.Detail)
			}

			if failed > 0 {
				log.Fatalf("%d diagnostic step(s) failed", failed)
			}
		},
	}

	cmd.Flags().String("email", "debug@test.com", "Email for the login step")
	cmd.Flags().String("password", "debug123", "Password for the login step")
	cmd.Flags().String("item", "milk", "Item name for the search and add steps")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print qloo version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			fmt.Printf("%s %s (%s)\n", cfg.App.Name, cfg.App.Version, cfg.App.Environment)
		},
	}
}

func mustBootstrap(a *app) *services.BootstrapState {
	state, err := a.lists.Bootstrap(context.Background())
	if err != nil {
		// Non-fatal: an unreachable backend still renders an empty list.
		fmt.Printf("Warning: %v\n", err)
	}
	if state.NeedsAuth {
		log.Fatal("Not signed in; run `qloo login` first")
	}
	return state
}

func printProduct(p entities.Product) {
	fmt.Printf("%s\n", p.Name)
	fmt.Printf("  Brand: %s  UPC: %s\n", p.Brand, p.UPC)
	fmt.Printf("  Price: %s", entities.FormatPrice(p.Price))
	if p.PromoPrice != nil {
		fmt.Printf("  Promo: %s", entities.FormatPrice(p.PromoPrice))
	}
	fmt.Printf("  %s\n", p.Inventory.Label())
}

func printItems(items []entities.DisplayItem) {
	if len(items) == 0 {
		fmt.Println("No items yet")
		return
	}

	for _, item := range items {
		stock := "in stock"
		if !item.InStock {
			stock = "out of stock"
		}
		fmt.Printf("  %-36s  $%6.2f  %-12s  %s\n", item.Name, item.Price, stock, item.ID)
	}

	totals := services.ComputeTotals(items)
	fmt.Printf("Total: $%.2f", totals.TotalCost)
	if totals.TotalSavings > 0 {
		fmt.Printf("  (saved $%.2f)", totals.TotalSavings)
	}
	fmt.Println()
}
