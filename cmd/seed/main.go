// seed inserts a test user with a spread of login tokens into the local
// dev database: a few active, one already used, one expired.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aidosbek/loginlink/internal/infrastructure/postgres"
	"github.com/aidosbek/loginlink/internal/token"
)

const seedEmail = "seed@test.local"

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	var userID string
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		seedEmail,
	).Scan(&userID)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	codec := token.NewCodec(token.Default())
	repo := postgres.NewTokenRepository(pool)

	specs := []struct {
		label     string
		expiresIn time.Duration
		used      bool
	}{
		{"active", time.Hour, false},
		{"active", time.Hour, false},
		{"active", 24 * time.Hour, false},
		{"used", time.Hour, true},
		{"expired", -time.Minute, false},
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:    %s\n", seedEmail)
	fmt.Printf("  User ID: %s\n", userID)
	fmt.Println()
	fmt.Println("  Tokens:")

	for _, spec := range specs {
		raw, err := codec.Generate()
		if err != nil {
			log.Fatalf("generate token: %v", err)
		}
		hash := codec.Hash(raw)

		if err := repo.Insert(ctx, hash, userID, time.Now().Add(spec.expiresIn)); err != nil {
			log.Fatalf("insert token: %v", err)
		}
		if spec.used {
			if _, err := repo.Consume(ctx, hash); err != nil {
				log.Fatalf("consume token: %v", err)
			}
		}

		fmt.Printf("    %-8s %s\n", spec.label, raw)
	}

	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  # Check a token without consuming it:")
	fmt.Println("  curl -s 'http://localhost:8080/auth/check?token=RAW'")
	fmt.Println()
	fmt.Println("  # Redeem it (works once; repeat to see used_token):")
	fmt.Println("  curl -s 'http://localhost:8080/auth/verify?token=RAW'")
	fmt.Println("  # → {\"token\":\"eyJ...\"}")
	fmt.Println()
	fmt.Println("  # Token stats for the seed user:")
	fmt.Println("  export JWT=eyJ...")
	fmt.Println("  curl -s http://localhost:8080/tokens/stats -H \"Authorization: Bearer $JWT\"")
}
