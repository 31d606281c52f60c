package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/talenter-ng/talenter/internal/admin"
	"github.com/talenter-ng/talenter/internal/alerts"
	"github.com/talenter-ng/talenter/internal/auth"
	"github.com/talenter-ng/talenter/internal/chat"
	"github.com/talenter-ng/talenter/internal/config"
	"github.com/talenter-ng/talenter/internal/db"
	"github.com/talenter-ng/talenter/internal/files"
	"github.com/talenter-ng/talenter/internal/geo"
	"github.com/talenter-ng/talenter/internal/job"
	"github.com/talenter-ng/talenter/internal/match"
	appmw "github.com/talenter-ng/talenter/internal/middleware"
	"github.com/talenter-ng/talenter/internal/review"
	"github.com/talenter-ng/talenter/internal/user"
	w "github.com/talenter-ng/talenter/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db.Init(cfg.ConnectionString())
	defer db.Close()
	alerts.Init()
	defer alerts.Close()
	auth.EnsureAdmin()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public routes
	e.POST("/signup", auth.Signup)
	e.POST("/login", auth.Login)
	e.GET("/users/:id/profile", user.PublicProfile)
	e.GET("/users/:id/reviews", review.ForArtisan)

	// Authenticated group
	g := e.Group("")
	g.Use(appmw.JWT)

	g.GET("/me", auth.Me)
	g.PATCH("/users/profile", user.UpdateProfile)
	g.GET("/artisans", user.FetchArtisans)

	// Wallet
	g.GET("/wallet", w.GetWallet)
	g.POST("/wallet/pin", w.SetPin)
	g.POST("/wallet/fund", w.Fund)
	g.POST("/wallet/withdraw", w.Withdraw, appmw.RequireRoles("artisan", "admin"))

	// Bank accounts
	g.GET("/banks", user.ListBanks)
	g.GET("/banks/resolve", user.ResolveAccount)
	g.POST("/banks", user.AddBank)
	g.GET("/banks/mine", user.MyBanks)
	g.DELETE("/banks/:id", user.DeleteBank)

	// Jobs
	g.POST("/jobs", job.Create, appmw.RequireRoles("client", "admin"))
	g.GET("/jobs/open", job.ListOpen, appmw.RequireRoles("artisan"))
	g.GET("/jobs/mine", job.ListMine)
	g.GET("/jobs/saved", job.Saved)
	g.GET("/jobs/search", job.Search)
	g.GET("/jobs/report", job.Report)
	g.GET("/jobs/:id", job.Get)
	g.PATCH("/jobs/:id", job.Update)
	g.DELETE("/jobs/:id", job.Delete)
	g.POST("/jobs/:id/save", job.Save)
	g.POST("/jobs/:id/unsave", job.Unsave)
	g.GET("/jobs/:id/bids", match.HandleListJobBids)
	g.PATCH("/jobs/:id/status", match.HandleUpdateJobStatus, appmw.RequireRoles("client", "admin"))

	// Bids
	g.POST("/bids", match.HandleApply, appmw.RequireRoles("artisan"))
	g.GET("/bids/mine", match.HandleListMyBids)
	g.GET("/bids/:id", match.HandleGetBid)
	g.PATCH("/bids/:id", match.HandleUpdateBid)
	g.POST("/bids/:id/accept", match.HandleAcceptBid, appmw.RequireRoles("client", "admin"))
	g.POST("/bids/:id/accept-job", match.HandleAcceptJob, appmw.RequireRoles("artisan"))
	g.POST("/bids/:id/cancel", match.HandleCancelBid, appmw.RequireRoles("artisan"))

	// Chat
	g.GET("/chats", chat.ListThreads)
	g.GET("/chats/:id/messages", chat.Messages)
	g.POST("/chats/messages", chat.Send)

	// Notifications
	g.GET("/notifications", alerts.ListNotifications)
	g.POST("/notifications/:id/read", alerts.MarkRead)
	g.POST("/notifications/read-all", alerts.MarkAllRead)
	g.DELETE("/notifications/:id", alerts.DeleteNotification)

	// Reviews
	g.POST("/reviews", review.Create, appmw.RequireRoles("client", "admin"))

	// Places and uploads
	g.GET("/places/autocomplete", geo.HandleAutocomplete)
	g.POST("/uploads", files.HandleUpload)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWT)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.GET("/settings", admin.GetSettings)
	adminGroup.PATCH("/settings", admin.UpdateSettings)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/active", admin.SetUserActive)
	adminGroup.GET("/transactions", w.AdminAllTransactions)
	adminGroup.POST("/broadcast", admin.Broadcast)

	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(cfg.App.Port)
	}
	log.Printf("API server listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
