package http

import (
	nethttp "net/http"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	appprod "github.com/jhoicas/produccion-flow/internal/application/production"
	"github.com/jhoicas/produccion-flow/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	FlowUC         *appprod.FlowUseCase
	JWTSecret      string
	StagePolicy    StagePolicy     // nil = DefaultStagePolicy
	MetricsHandler nethttp.Handler // nil = sin /metrics
}

// MountDocs sirve Swagger UI en /docs a partir del swagger.json generado por swag.
// Devuelve false sin montar nada si el archivo no existe.
func MountDocs(app *fiber.App, file, title string) bool {
	if file == "" {
		return false
	}
	if _, err := os.Stat(file); err != nil {
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: file,
		Path:     "docs",
		Title:    title,
	}))
	return true
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	policy := deps.StagePolicy
	if policy == nil {
		policy = DefaultStagePolicy()
	}
	stageAccess := RequireStageAccess(policy)

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	batchHandler := NewBatchHandler(deps.FlowUC)
	batches := api.Group("/batches")
	batches.Get("/", batchHandler.List)
	batches.Post("/", RequireRole(jwt.RoleSupervisor, jwt.RoleDespacho), batchHandler.Create)
	batches.Get("/:dispatchId", batchHandler.GetStatus)
	batches.Get("/:dispatchId/gate/:stage", batchHandler.Gate)
	batches.Get("/:dispatchId/history.pdf", batchHandler.HistoryPDF)
	batches.Post("/:dispatchId/advance", batchHandler.Advance)

	// Modificaciones por etapa: el rol debe operar la etapa indicada
	batches.Post("/:dispatchId/stages/:stage/complete", stageAccess, batchHandler.CompleteStage)
	batches.Put("/:dispatchId/stages/:stage/status", stageAccess, batchHandler.UpdateStatus)
	batches.Put("/:dispatchId/stages/:stage/due-date", stageAccess, batchHandler.UpdateDueDate)

	productionHandler := NewProductionHandler(deps.FlowUC)
	prod := api.Group("/production")
	prod.Get("/stages", productionHandler.Stages)
	prod.Get("/cable-candidates", productionHandler.CableCandidates)
}
