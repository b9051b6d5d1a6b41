// seed inserts an initial admin user for local development.
// Idempotent: skips the insert when the admin email already exists.
package main

import (
	"context"
	"log"

	"github.com/google/uuid"

	"session-auth-service/internal/config"
	"session-auth-service/internal/db"
	"session-auth-service/internal/security"
	"session-auth-service/internal/user/domain"
	userrepo "session-auth-service/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "ChangeMe-Now1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)
	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Printf("seed: admin %s already exists, skipping", adminEmail)
		return
	}

	hasher := security.NewPasswordHasher(security.DefaultArgon2Params())
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	admin, err := domain.New(uuid.New().String(), adminEmail, hash, domain.RoleAdmin)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: created admin %s", adminEmail)
}
