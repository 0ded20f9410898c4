package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utilityops/records-service/internal/api/http/handlers"
	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/storage"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Users             *handlers.UsersHandler
	Connections       *handlers.ConnectionsHandler
	Documents         *handlers.DocumentsHandler
	NameChanges       *handlers.NameChangeHandler
	SessionMiddleware *auth.SessionMiddleware
	MetricsGatherer   prometheus.Gatherer
	UploadsRoot       string
	OpenRegistration  bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsGatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	session := cfg.SessionMiddleware.Handle
	dataEntry := auth.RequireRole(domain.RoleDataEntry)
	dataViewing := auth.RequireRole(domain.RoleDataViewing)
	anyRole := auth.AnyRole()

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", session, anyRole, cfg.Auth.Me)
	authGroup.Post("/password/change", session, anyRole, cfg.Auth.ChangePassword)

	users := app.Group("/users")
	if cfg.OpenRegistration {
		users.Post("/create-user", cfg.Users.Create)
	} else {
		users.Post("/create-user", session, dataEntry, cfg.Users.Create)
	}
	users.Get("/", session, anyRole, cfg.Users.List)
	users.Get("/commercial-officers", session, anyRole, cfg.Users.ByPosition(domain.PositionCommercialOfficer))
	users.Get("/area-engineers", session, anyRole, cfg.Users.ByPosition(domain.PositionAreaEngineer))
	users.Get("/ONM-engineers", session, anyRole, cfg.Users.ByPosition(domain.PositionONMEngineer))

	connections := app.Group("/connections", session)
	connections.Post("/complete", dataEntry, cfg.Connections.Complete)
	connections.Post("/add", dataEntry, cfg.Connections.Add)
	connections.Get("/", anyRole, cfg.Connections.List)
	connections.Get("/export", anyRole, cfg.Connections.Export)
	connections.Put("/account/:accountNumber", dataEntry, cfg.Connections.Update)
	connections.Get("/:accountNumber", anyRole, cfg.Connections.Get)
	connections.Delete("/:accountNumber", dataEntry, cfg.Connections.Delete)

	documents := app.Group("/documents", session)
	documents.Post("/upload", dataEntry, cfg.Documents.Upload)
	documents.Get("/", anyRole, cfg.Documents.List)
	documents.Get("/:accountNumber/download", dataViewing, cfg.Documents.Download)
	documents.Get("/:accountNumber", anyRole, cfg.Documents.Get)
	documents.Put("/:accountNumber", dataEntry, cfg.Documents.Update)
	documents.Delete("/:accountNumber", dataEntry, cfg.Documents.Delete)

	// Fixed paths are registered ahead of /:id so they are not shadowed.
	nameChanges := app.Group("/namechange", session)
	nameChanges.Post("/add", dataEntry, cfg.NameChanges.Create)
	nameChanges.Get("/", dataViewing, cfg.NameChanges.List)
	nameChanges.Get("/my-approvals", dataViewing, cfg.NameChanges.MyApprovals)
	nameChanges.Get("/pending-examination", dataViewing, cfg.NameChanges.PendingExamination)
	nameChanges.Get("/approved-examined", anyRole, cfg.NameChanges.ApprovedExamined)
	nameChanges.Get("/connection/:accountNumber", dataViewing, cfg.NameChanges.ListByConnection)
	nameChanges.Put("/examine/:id", dataViewing, cfg.NameChanges.Examine)
	for _, level := range domain.ApprovalLevels {
		path := "/approval" + strconv.Itoa(level)
		nameChanges.Put(path+"/:id", dataViewing, cfg.NameChanges.SetApproval(level))
		nameChanges.Get(path+"/:employeeId", dataViewing, cfg.NameChanges.ListByApprover(level))
	}
	nameChanges.Get("/:id", dataViewing, cfg.NameChanges.Get)

	if cfg.UploadsRoot != "" {
		files := app.Group("/"+storage.URLPrefix, session, anyRole)
		files.Static("/", cfg.UploadsRoot, fiber.Static{Browse: false})
	}
}
