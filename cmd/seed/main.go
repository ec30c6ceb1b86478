package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"contactvault/internal/auth"
	"contactvault/internal/config"
	"contactvault/internal/db"
	apperrors "contactvault/internal/errors"
	"contactvault/internal/model"
	"contactvault/internal/repository"
	"contactvault/internal/service"
)

const (
	demoEmail    = "demo@contactvault.local"
	demoPassword = "demo-password"
)

type seedContact struct {
	firstName, lastName, email, phone string
	birthDate                         string
}

var seedContacts = []seedContact{
	{"Alice", "Brown", "alice.brown@example.com", "+1-555-0101", "1988-04-12"},
	{"Mike", "Wilson", "mike.wilson@example.com", "+1-555-0102", "1979-11-03"},
	{"Zara", "Adams", "zara.adams@example.com", "+1-555-0103", "1994-06-27"},
	{"John", "Doe", "john.doe@example.com", "+1-555-0104", "1985-01-15"},
	{"Jane", "Smith", "jane.smith@example.com", "+1-555-0105", "1991-09-08"},
	{"Johnny", "Walker", "johnny.walker@example.com", "+1-555-0106", "1972-12-24"},
}

// Seeds a demo user and contact book through the real services so the data
// goes through the same hashing and normalization as production traffic.
func main() {
	log.Println("Starting seed script...")

	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Contact{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	queryTimeout := time.Duration(cfg.QueryTimeoutSeconds) * time.Second
	userRepo := repository.NewUserRepository(gormDB, queryTimeout)
	contactRepo := repository.NewContactRepository(gormDB, queryTimeout)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiryMinutes)
	authService := service.NewAuthService(userRepo, jwtService, nil)
	contactService := service.NewContactService(contactRepo, nil, nil)

	ctx := context.Background()

	result, err := authService.Register(ctx, demoEmail, demoPassword, "Demo", "User")
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateEmail) {
			log.Fatalf("Failed to register demo user: %v", err)
		}
		result, err = authService.Login(ctx, demoEmail, demoPassword)
		if err != nil {
			log.Fatalf("Failed to login existing demo user: %v", err)
		}
		log.Println("Demo user already exists, reusing it")
	} else {
		log.Printf("Created demo user %s", demoEmail)
	}

	created := 0
	for _, sc := range seedContacts {
		birthDate, err := time.Parse("2006-01-02", sc.birthDate)
		if err != nil {
			log.Fatalf("Bad seed birth date %q: %v", sc.birthDate, err)
		}
		_, err = contactService.Create(ctx, result.UserID, service.ContactInput{
			FirstName:   sc.firstName,
			LastName:    sc.lastName,
			Email:       sc.email,
			PhoneNumber: sc.phone,
			BirthDate:   &birthDate,
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicateEmail) {
				continue
			}
			log.Fatalf("Failed to seed contact %s %s: %v", sc.firstName, sc.lastName, err)
		}
		created++
	}

	log.Printf("Seed complete: %d contacts created for %s", created, demoEmail)
}
