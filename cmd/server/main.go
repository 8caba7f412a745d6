package main

import (
	"context"
	"log"
	"time"

	"anoa.com/perpussekolah/internal/config"
	"anoa.com/perpussekolah/internal/model"
	"anoa.com/perpussekolah/internal/server"
	"anoa.com/perpussekolah/pkg/database"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedGradeLevels(db); err != nil {
		log.Fatalf("failed to seed grade levels: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.StudentProfile{},
		&model.TeacherProfile{},
		&model.VisitorProfile{},
		&model.GradeLevel{},
		&model.Visit{},
		&model.RewardCycle{},
		&model.RewardPoint{},
		&model.Book{},
		&model.Borrowing{},
	)
}

// connectRedis returns nil when Redis is not configured or unreachable;
// rate limiting, caching and the live visit feed degrade gracefully.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, running without redis: %v", err)
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable, running without redis: %v", err)
		return nil
	}

	return client
}

func seedGradeLevels(db *gorm.DB) error {
	defaultGrades := []model.GradeLevel{
		{Name: "Kelas 7", Order: 7},
		{Name: "Kelas 8", Order: 8},
		{Name: "Kelas 9", Order: 9, IsFinal: true},
	}

	for _, grade := range defaultGrades {
		var count int64
		if err := db.Model(&model.GradeLevel{}).
			Where("level_order = ?", grade.Order).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&grade).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("role = ?", model.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := "admin"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := model.User{
		Name:         "Admin",
		Role:         model.RoleAdmin,
		PasswordHash: string(hashedPasswordBytes),
		IsActive:     true,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded successfully")
	log.Println("   Name: Admin")
	log.Println("   Password: admin")

	return nil
}
