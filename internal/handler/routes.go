package handler

import (
	"go-opname-ws/internal/middleware"
	"go-opname-ws/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything mounted under /api/v1
type Handlers struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Product   *ProductHandler
	Opname    *OpnameHandler
	User      *UserHandler
	Role      *RoleHandler
}

// Register mounts the API. requireAuth guards every route except login,
// password reset and token validation.
func (h *Handlers) Register(api fiber.Router, requireAuth fiber.Handler) {
	need := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Dashboard Routes
	protected.Get("/dashboard/stats", need(model.PrivDashboardView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", need(model.PrivDashboardView), h.Dashboard.GetStockMovement)

	// Product Routes
	protected.Get("/products", need(model.PrivProductView), h.Product.GetProducts)
	protected.Get("/products/:id", need(model.PrivProductView), h.Product.GetProduct)
	protected.Post("/products", need(model.PrivProductCreate), h.Product.CreateProduct)
	protected.Put("/products/:id", need(model.PrivProductUpdate), h.Product.UpdateProduct)
	protected.Delete("/products/:id", need(model.PrivProductDelete), h.Product.DeleteProduct)
	protected.Get("/adjustments", middleware.RequireAnyPrivilege(model.PrivProductView, model.PrivOpnameView), h.Product.GetAdjustments)

	// Opname Routes
	opname := protected.Group("/opname")
	opname.Get("/", need(model.PrivOpnameView), h.Opname.GetSessions)
	opname.Post("/", need(model.PrivOpnameCreate), h.Opname.CreateSession)
	opname.Get("/:id", need(model.PrivOpnameView), h.Opname.GetSession)
	opname.Get("/:id/records", need(model.PrivOpnameView), h.Opname.GetRecords)
	opname.Get("/:id/summary", need(model.PrivOpnameView), h.Opname.GetSummary)
	opname.Put("/:id/records/:product_id", need(model.PrivOpnameCount), h.Opname.UpsertRecord)
	opname.Post("/:id/records/:product_id/photos", need(model.PrivOpnameCount), h.Opname.AddPhoto)
	opname.Delete("/:id/records/:product_id/photos/:photo_id", need(model.PrivOpnameCount), h.Opname.RemovePhoto)
	opname.Post("/:id/complete", need(model.PrivOpnameComplete), h.Opname.CompleteSession)
	opname.Get("/:id/export", need(model.PrivOpnameExport), h.Opname.ExportSession)
	opname.Delete("/:id", need(model.PrivOpnameDelete), h.Opname.DeleteSession)

	// User Management Routes
	protected.Get("/users", need(model.PrivUserView), h.User.GetUsers)
	protected.Get("/users/:id", need(model.PrivUserView), h.User.GetUser)
	protected.Post("/users", need(model.PrivUserCreate), h.User.CreateUser)
	protected.Put("/users/:id", need(model.PrivUserUpdate), h.User.UpdateUser)
	protected.Delete("/users/:id", need(model.PrivUserDelete), h.User.DeleteUser)
	protected.Put("/users/:id/privileges", need(model.PrivUserUpdatePrivilege), h.User.UpdateUserPrivileges)

	// Role & Privilege Routes
	protected.Get("/roles", h.Role.GetRoles)
	protected.Get("/privileges", h.Role.GetPrivileges)
}
