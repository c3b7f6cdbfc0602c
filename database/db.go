package database

import (
	"fmt"
	"log"
	"os"

	"montoit-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Connect() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		envDefault("DB_HOST", "db"),
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"),
		envDefault("DB_PORT", "5432"),
		envDefault("DB_SSLMODE", "disable"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("could not connect to database: " + err.Error())
	}
}

func AutoMigrate() {
	DB.AutoMigrate(
		&models.User{}, &models.Agency{}, &models.Property{},
		&models.Mandate{}, &models.SignatureAttemptLog{},
		&models.IdempotencyKey{})
}
