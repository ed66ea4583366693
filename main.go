// @title           ProdFlow API
// @version         1.0
// @description     BOM and production order validation backend - all endpoints used in the application.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "backend/docs"
	"backend/handlers"
	"backend/models"
	"backend/services"
	"backend/storage"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origin)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// cronRunning guards against overlapping nightly runs.
var cronRunning int32

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
		}
	}()
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	// Nightly maintenance: session cleanup plus the batch BOM integrity scan.
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 2 * * *", func() {
		// ------------------ CRON LOCK ------------------
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			cronLogger.Println("Previous cron still running. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting nightly maintenance cron job")

		// ------------------ TIMEOUT CONTEXT ------------------
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "NightlyBOMScan", func(ctx context.Context) error {
			scanner := services.NewScanService(db, gormDB, services.NewAlertService())
			_, err := scanner.RunScan(models.ScanJobTypeNightly)
			return err
		}, cronLogger)

		// ------------------ WAIT WITH CANCELLATION ------------------
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			cronLogger.Println("Cron timeout reached, jobs cancelled")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule nightly maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & LOGIN ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))
	r.DELETE("/api/session/:user_id", handlers.DeleteSessionHandler(db))

	api := r.Group("/api", handlers.RequireSession(db))

	// ==================== 2. BOM VALIDATION ====================
	api.GET("/bom/:id/edit_level", handlers.GetBOMEditLevelHandler(db))
	api.PUT("/bom/:id/status", handlers.TransitionBOMStatusHandler(db))
	api.POST("/bom/check_circular", handlers.CheckCircularHandler())
	api.GET("/bom/:id/check_circular", handlers.CheckBOMCircularHandler(db))
	api.POST("/bom/check_duplicates", handlers.CheckDuplicatesHandler())
	api.GET("/bom/:id/check_duplicates", handlers.CheckBOMDuplicatesHandler(db))
	api.GET("/bom_pdf/:id", handlers.GenerateBOMPDF(db))

	// ==================== 3. PRODUCTION ORDERS ====================
	api.POST("/order", handlers.CreateOrderHandler(db))
	api.POST("/order/validate", handlers.ValidateOrderHandler(db))
	api.GET("/order/:id", handlers.GetOrderHandler(db))
	api.PUT("/order/:id", handlers.UpdateOrderHandler(db))
	api.POST("/order/:id/confirm", handlers.ConfirmOrderHandler(db))
	api.POST("/order/:id/cancel", handlers.CancelOrderHandler(db))
	api.DELETE("/order/:id", handlers.DeleteOrderHandler(db))
	api.GET("/order_qr/:id", handlers.GenerateOrderQRCodeJPEG(db))

	// ==================== 4. DASHBOARD ====================
	api.GET("/dashboard/bom_conflicts", handlers.GetBOMConflictsHandler(db))
	api.GET("/dashboard/circular_boms", handlers.GetCircularBOMsHandler())
	api.GET("/dashboard/validation_summary", handlers.GetValidationSummaryHandler(db))

	// ==================== 5. SCAN JOBS ====================
	api.GET("/scan_jobs", handlers.ListScanJobsHandler())
	api.GET("/scan_jobs/:uuid", handlers.GetScanJobHandler())
	api.POST("/scan_jobs", handlers.TriggerScanHandler(db))

	// ==================== 6. EXPORTS ====================
	api.GET("/export_csv_bom/:id", handlers.ExportCSVBOM(db))
	api.GET("/export_orders_excel", handlers.ExportOrdersExcel(db))

	// ==================== 7. ACTIVITY LOGS ====================
	api.GET("/logs", handlers.GetActivityLogsHandler(db))

	// ==================== 8. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
