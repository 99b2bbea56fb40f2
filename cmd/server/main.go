package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"ucampus.dev/reserve/internal/bootstrap"
	"ucampus.dev/reserve/internal/config"
	"ucampus.dev/reserve/internal/handler"
	"ucampus.dev/reserve/internal/middleware"
	"ucampus.dev/reserve/internal/model"
	"ucampus.dev/reserve/internal/repository"
	"ucampus.dev/reserve/internal/service"
	"ucampus.dev/reserve/internal/sweep"
	"ucampus.dev/reserve/pkg/database"
	"ucampus.dev/reserve/pkg/identity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
	}

	idp := identity.NewNoopProvider()
	if cfg.IdentityBaseURL != "" {
		idp = identity.NewHTTPProvider(cfg.IdentityBaseURL, cfg.IdentityToken)
	}

	tx := database.NewTransactor(db)

	userRepo := repository.NewUserRepository(db)
	groupReqRepo := repository.NewGroupRequestRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	eventRepo := repository.NewEventRequestRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	strikeRepo := repository.NewStrikeRepository(db)

	reputationService := service.NewReputationService(eventRepo, feedbackRepo, groupRepo)
	cascadeService := service.NewCascadeService(
		userRepo, groupReqRepo, groupRepo, eventRepo,
		feedbackRepo, reservationRepo, strikeRepo,
		reputationService, idp, tx,
	)
	sweeperService := service.NewSweeperService(
		reservationRepo, userRepo, strikeRepo, tx, cfg.GraceMinutes, loc,
	)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	groupService := service.NewGroupService(groupReqRepo, groupRepo, userRepo, tx)
	eventService := service.NewEventService(eventRepo, groupRepo, userRepo)
	feedbackService := service.NewFeedbackService(
		feedbackRepo, eventRepo, userRepo, reputationService, tx, rdb, 30*time.Second,
	)
	reservationService := service.NewReservationService(reservationRepo, cfg.GraceMinutes, loc)
	strikeService := service.NewStrikeService(strikeRepo, userRepo)

	if err := bootstrap.SeedAdmin(db); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if err := bootstrap.SeedReservations(context.Background(), reservationService, cfg.SeedHorizonDays, loc); err != nil {
		log.Fatalf("failed to seed reservations: %v", err)
	}

	authHandler := handler.NewAuthHandler(authService)
	groupHandler := handler.NewGroupHandler(groupService, cascadeService)
	eventHandler := handler.NewEventHandler(eventService, cascadeService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	strikeHandler := handler.NewStrikeHandler(strikeService)
	adminHandler := handler.NewAdminHandler(userRepo, cascadeService)

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api.Use(authMiddleware.RequireAuth())
	{
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.POST("/users/:id/restore", adminHandler.RestoreUser)

			admin.GET("/group-requests", groupHandler.ListPendingRequests)
			admin.POST("/group-requests/:id/confirm", groupHandler.ConfirmRequest)
			admin.POST("/group-requests/:id/restore", groupHandler.RestoreRequest)

			admin.POST("/event-requests/:id/confirm", eventHandler.Confirm)

			admin.POST("/reservations/seed", reservationHandler.Seed)
			admin.POST("/strikes", strikeHandler.Issue)
		}

		api.POST("/group-requests", groupHandler.CreateRequest)
		api.GET("/group-requests", groupHandler.ListMyRequests)
		api.POST("/group-requests/:id/cancel", groupHandler.CancelRequest)
		api.DELETE("/group-requests/:id", groupHandler.DeleteRequest)

		api.GET("/groups", groupHandler.ListGroups)
		api.GET("/groups/:id", groupHandler.GetGroup)
		api.DELETE("/groups/:id", groupHandler.DeleteGroup)
		api.GET("/groups/:id/event-requests", eventHandler.ListByGroup)

		api.POST("/event-requests", eventHandler.Create)
		api.POST("/event-requests/:id/cancel", eventHandler.Cancel)
		api.DELETE("/event-requests/:id", eventHandler.Delete)

		api.POST("/feedback", feedbackHandler.Create)
		api.PUT("/feedback/:id", feedbackHandler.Update)
		api.DELETE("/feedback/:id", feedbackHandler.Delete)
		api.GET("/events/:event_id/feedback", feedbackHandler.ListByEvent)

		api.GET("/reservations", reservationHandler.ListByDay)
		api.POST("/reservations/:id/book", reservationHandler.Book)
		api.POST("/reservations/:id/check-in", reservationHandler.CheckIn)

		api.GET("/users/:user_id/strikes", strikeHandler.ListForUser)
	}

	scheduler := sweep.NewScheduler(sweeperService, loc)
	if err := scheduler.Start(cfg.SweepInterval); err != nil {
		log.Fatalf("failed to start sweeper: %v", err)
	}
	defer scheduler.Stop()

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.GroupRequest{},
		&model.Group{},
		&model.EventRequest{},
		&model.Feedback{},
		&model.Reservation{},
		&model.Strike{},
	)
}
