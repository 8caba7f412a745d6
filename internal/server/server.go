package server

import (
	"log"
	"strings"
	"time"

	"anoa.com/perpussekolah/internal/config"
	"anoa.com/perpussekolah/internal/middleware"
	"anoa.com/perpussekolah/pkg/storage"

	bookHttp "anoa.com/perpussekolah/internal/modules/book/delivery/http"
	bookRepo "anoa.com/perpussekolah/internal/modules/book/repository"
	bookService "anoa.com/perpussekolah/internal/modules/book/service"

	borrowingHttp "anoa.com/perpussekolah/internal/modules/borrowing/delivery/http"
	borrowingRepo "anoa.com/perpussekolah/internal/modules/borrowing/repository"
	borrowingService "anoa.com/perpussekolah/internal/modules/borrowing/service"

	profileHttp "anoa.com/perpussekolah/internal/modules/profile/delivery/http"
	profileService "anoa.com/perpussekolah/internal/modules/profile/service"

	rewardHttp "anoa.com/perpussekolah/internal/modules/reward/delivery/http"
	rewardRepo "anoa.com/perpussekolah/internal/modules/reward/repository"
	rewardService "anoa.com/perpussekolah/internal/modules/reward/service"

	searchService "anoa.com/perpussekolah/internal/modules/search/service"

	studentHttp "anoa.com/perpussekolah/internal/modules/student/delivery/http"
	studentRepo "anoa.com/perpussekolah/internal/modules/student/repository"
	studentService "anoa.com/perpussekolah/internal/modules/student/service"

	teacherHttp "anoa.com/perpussekolah/internal/modules/teacher/delivery/http"
	teacherService "anoa.com/perpussekolah/internal/modules/teacher/service"

	userHttp "anoa.com/perpussekolah/internal/modules/user/delivery/http"
	userRepo "anoa.com/perpussekolah/internal/modules/user/repository"
	userService "anoa.com/perpussekolah/internal/modules/user/service"

	visitHttp "anoa.com/perpussekolah/internal/modules/visit/delivery/http"
	visitRepo "anoa.com/perpussekolah/internal/modules/visit/repository"
	visitService "anoa.com/perpussekolah/internal/modules/visit/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		// The catalog works without covers; uploads will be rejected.
		log.Printf("cloudinary storage unavailable: %v", err)
		imageStorage = nil
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	bookIndex := searchService.NewBookIndexService(meiliClient)

	authSvc := userService.NewAuthService(users, cfg.JWTSecret)
	authHandler := userHttp.NewAuthHandler(authSvc)

	visits := visitRepo.NewVisitRepository(db)
	visitSvc := visitService.NewVisitService(visits, users, redisClient, cfg.RateLimitVisit)
	visitHandler := visitHttp.NewVisitHandler(visitSvc, redisClient)

	rewards := rewardRepo.NewRewardRepository(db)
	rewardSvc := rewardService.NewRewardService(rewards, redisClient)
	rewardHandler := rewardHttp.NewRewardHandler(rewardSvc)

	students := studentRepo.NewStudentRepository(db)
	studentSvc := studentService.NewStudentService(students, users)
	studentHandler := studentHttp.NewStudentHandler(studentSvc)

	teacherSvc := teacherService.NewTeacherService(users)
	teacherHandler := teacherHttp.NewTeacherHandler(teacherSvc)

	books := bookRepo.NewBookRepository(db)
	bookSvc := bookService.NewBookService(books, bookIndex, imageStorage, cfg.CloudinaryUploadFolder)
	bookHandler := bookHttp.NewBookHandler(bookSvc)

	borrowings := borrowingRepo.NewBorrowingRepository(db)
	borrowingSvc := borrowingService.NewBorrowingService(borrowings, books, users)
	borrowingHandler := borrowingHttp.NewBorrowingHandler(borrowingSvc)

	profileSvc := profileService.NewProfileService(users, visits, rewards, borrowingSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}
	api.GET("/books/search", bookHandler.PublicSearch)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/visit", visitHandler.RecordVisit)

		protected.GET("/user/profile", profileHandler.GetProfile)
		protected.GET("/user/award", rewardHandler.Award)

		protected.POST("/borrowing", borrowingHandler.Borrow)
		protected.POST("/borrowing/:id/return", borrowingHandler.Return)
		protected.GET("/borrowing", borrowingHandler.ListByUser)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/update-password", authHandler.UpdatePassword)

			adminGroup.GET("/visit/recent", visitHandler.RecentVisits)
			adminGroup.GET("/visit/stream", visitHandler.StreamVisits)

			adminGroup.POST("/student", studentHandler.CreateStudents)
			adminGroup.PATCH("/student", studentHandler.UpdateStudent)
			adminGroup.POST("/student/import-students", studentHandler.ImportStudents)
			adminGroup.POST("/student/promote", studentHandler.Promote)
			adminGroup.GET("/student/grade-levels", studentHandler.GradeLevels)

			adminGroup.POST("/student/reward/restart-reward", rewardHandler.RestartReward)
			adminGroup.GET("/student/reward/active-reward", rewardHandler.ActiveReward)

			adminGroup.POST("/teacher/import-teachers", teacherHandler.ImportTeachers)

			adminGroup.GET("/book", bookHandler.ListBooks)
			adminGroup.POST("/book", bookHandler.CreateBook)
			adminGroup.GET("/book/:id", bookHandler.GetBook)
			adminGroup.PUT("/book/:id", bookHandler.UpdateBook)
			adminGroup.DELETE("/book/:id", bookHandler.DeleteBook)
			adminGroup.POST("/book/import", bookHandler.ImportBooks)
			adminGroup.POST("/book/:id/cover", bookHandler.UploadCover)

			adminGroup.GET("/borrowing", borrowingHandler.ListAll)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
