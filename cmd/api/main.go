package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-opname-ws/internal/cache"
	"go-opname-ws/internal/config"
	"go-opname-ws/internal/handler"
	"go-opname-ws/internal/middleware"
	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/service"
	"go-opname-ws/internal/ws"
	"go-opname-ws/pkg/database"
	"go-opname-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()
	jwt.Configure(cfg.JWTSecret, cfg.JWTTTL)

	// 2. Setup Database
	db := database.ConnectDB(cfg.DatabaseURL)
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	// 3. Seed default team, privileges, roles, and admin user
	seedDefaults(db, cfg)

	// 4. Setup WebSocket Hub & summary cache
	wsHub := ws.NewHub()
	go wsHub.Run()

	summaryCache := newSummaryCache(cfg)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	opnameRepo := repository.NewOpnameRepo(db)
	adjustmentRepo := repository.NewAdjustmentRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	catalogService := service.NewCatalogService(productRepo, adjustmentRepo, db, wsHub)
	opnameService := service.NewOpnameService(opnameRepo, productRepo, adjustmentRepo, db, summaryCache, cfg.SummaryCacheTTL, wsHub)
	exportService := service.NewExportService(opnameRepo)
	dashService := service.NewDashboardService(adjustmentRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Product:   handler.NewProductHandler(catalogService),
		Opname:    handler.NewOpnameHandler(opnameService, exportService),
		User:      handler.NewUserHandler(userService),
		Role:      handler.NewRoleHandler(roleRepo, privilegeRepo),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handlers.Register(app.Group("/api/v1"), middleware.RequireAuth(userRepo))

	// WebSocket Route
	app.Get("/ws", handler.WebSocketGuard(userRepo), handler.WebSocketHandler(wsHub))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(cfg.Address()); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if closer, ok := summaryCache.(interface{ Close() error }); ok {
		closer.Close()
	}

	log.Println("Server exited")
}

// newSummaryCache connects to Redis when configured, otherwise summaries are not cached
func newSummaryCache(cfg *config.Config) cache.SummaryCache {
	if cfg.RedisAddr == "" {
		return cache.NoopSummaryCache{}
	}

	redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		log.Printf("Warning: Redis unreachable at %s, summaries will not be cached: %v", cfg.RedisAddr, err)
		redisCache.Close()
		return cache.NoopSummaryCache{}
	}

	log.Println("Redis summary cache connected")
	return redisCache
}

// seedDefaults creates the default team, privileges, roles, and admin user if they don't exist
func seedDefaults(db *gorm.DB, cfg *config.Config) {
	teamRepo := repository.NewTeamRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Default team owns the seeded admin
	team, err := teamRepo.FirstOrCreate(cfg.AppName)
	if err != nil {
		log.Printf("Warning: Failed to seed team: %v", err)
		return
	}

	// 2. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 3. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 4. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MASTER_ADMIN gets ALL privileges
	if masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin); err == nil && len(masterRole.Privileges) == 0 {
		if err := roleRepo.ReplacePrivileges(masterRole, allPrivileges); err == nil {
			log.Println("✅ MASTER_ADMIN role assigned all privileges")
		}
	}

	// ADMIN gets limited privileges (exclude user management)
	if adminRole, err := roleRepo.FindByCode(model.RoleAdmin); err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if !model.IsUserManagementPrivilege(p.Code) {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		if err := roleRepo.ReplacePrivileges(adminRole, adminPrivileges); err == nil {
			log.Println("✅ ADMIN role assigned limited privileges")
		}
	}

	// STAFF only counts
	if staffRole, err := roleRepo.FindByCode(model.RoleStaff); err == nil && len(staffRole.Privileges) == 0 {
		staffPrivileges, _ := privilegeRepo.FindByCodes(model.StaffPrivileges)
		if err := roleRepo.ReplacePrivileges(staffRole, staffPrivileges); err == nil {
			log.Println("✅ STAFF role assigned counting privileges")
		}
	}

	// 5. Create default admin user with MASTER_ADMIN role
	if _, err := userRepo.FindByEmail(cfg.SeedAdminEmail); err == nil {
		return
	}
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err != nil {
		log.Printf("Warning: MASTER_ADMIN role missing: %v", err)
		return
	}

	admin := &model.User{
		TeamID:      team.ID,
		Email:       cfg.SeedAdminEmail,
		FullName:    "Master Administrator",
		PhoneNumber: "",
		RoleID:      &masterRole.ID,
		IsActive:    true,
		Privileges:  masterRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(cfg.SeedAdminPassword); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
		return
	}
	log.Printf("✅ Admin user created: %s (MASTER_ADMIN)", cfg.SeedAdminEmail)
}
