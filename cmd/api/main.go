package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"inmuebles_console/internal/auth"
	"inmuebles_console/internal/controller"
	"inmuebles_console/internal/gate"
	"inmuebles_console/internal/media"
	"inmuebles_console/internal/middleware"
	"inmuebles_console/internal/model"
	"inmuebles_console/internal/records"
	"inmuebles_console/internal/staging"
	"inmuebles_console/internal/store"
	"inmuebles_console/pkg/config"
	"inmuebles_console/pkg/cron"
	"inmuebles_console/pkg/database"
	"inmuebles_console/pkg/seed"
	"inmuebles_console/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App, g *gate.Gate, authC *controller.AuthController, propsC *controller.PropertyController, editorC *controller.EditorController) {
	api := app.Group("/api")

	// Auth Routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authC.Login)
	authGroup.Post("/logout", middleware.AuthMiddleware(), authC.Logout)
	authGroup.Get("/session", authC.Session)

	// Staged previews need no gate: the URLs are unguessable and the form
	// renders them before the dashboard token round-trips.
	api.Get("/staging/previews/:handle_id", editorC.ServePreview)

	// Everything below is dashboard-only.
	protected := api.Group("/", middleware.AuthMiddleware(), middleware.RequireAuthorized(g))

	properties := protected.Group("/properties")
	properties.Get("/", propsC.ListProperties)
	properties.Delete("/:id", propsC.DeleteProperty)

	protected.Get("/options", propsC.FormOptions)

	editors := protected.Group("/editor")
	editors.Post("/", editorC.OpenEditor)
	editors.Put("/:session_id/form", editorC.UpdateForm)
	editors.Post("/:session_id/images", editorC.AddImages)
	editors.Delete("/:session_id/images/:image_id", editorC.RemoveImage)
	editors.Put("/:session_id/images/order", editorC.ReorderImages)
	editors.Post("/:session_id/submit", editorC.Submit)
	editors.Post("/:session_id/cancel", editorC.Cancel)
}

func main() {
	cfg := config.Load()

	jwt.Init(cfg.JWT.Secret)

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db, &model.User{}, &model.Property{}); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	adminUser, err := seed.SeedAdminUser(db, cfg.Admin)
	if err != nil {
		log.Fatal("Could not seed admin user:", err)
	}
	allowList := seed.AdminAllowList(cfg.Admin, adminUser)
	if len(allowList) == 0 {
		log.Println("Warning: admin allow-list is empty, nobody can reach the dashboard")
	}

	authSvc := auth.NewCredentialService(db)
	sessions := auth.NewSessionStore(authSvc)
	accessGate := gate.New(authSvc, allowList, cfg.Gate.TransitionDelay)
	accessGate.Bind(sessions)

	documents := store.NewGormStore(db)
	listings := store.NewListingStore(documents)
	orchestrator := records.New(documents)

	var uploader media.Uploader
	switch cfg.Media.Provider {
	case "r2":
		uploader, err = media.NewR2Uploader(cfg.R2)
		if err != nil {
			log.Fatal("Could not initialize R2 uploader:", err)
		}
	default:
		uploader = media.NewCloudinaryUploader(cfg.Cloudinary)
	}

	alloc, err := staging.NewAllocator(cfg.Staging.Dir)
	if err != nil {
		log.Fatal("Could not initialize staging allocator:", err)
	}

	authController := controller.NewAuthController(authSvc, accessGate)
	propertyController := controller.NewPropertyController(listings, orchestrator)
	editorController := controller.NewEditorController(listings, orchestrator, alloc, uploader)

	cron.InitStagingSweeper(editorController, cfg.Staging.SessionTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, accessGate, authController, propertyController, editorController)

	log.Printf("Console is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
