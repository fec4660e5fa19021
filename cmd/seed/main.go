package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"papertrade/internal/auth"
	"papertrade/internal/database"
)

func main() {
	username := flag.String("username", "demo", "username for the seeded account")
	password := flag.String("password", "Demo1234", "password for the seeded account")
	flag.Parse()

	godotenv.Load()
	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	if !auth.ValidatePasswordPolicy(*password) {
		log.Fatal("password must be 8-30 characters and include a number, an uppercase and a lowercase letter")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password failed: %v", err)
	}

	repo := database.New(db, logrus.New())
	acc, err := repo.CreateAccount(context.Background(), *username, hash)
	if err != nil {
		log.Fatalf("create account failed: %v", err)
	}

	fmt.Printf("Seeded account %q (id %s) with %s cash\n", acc.Username, acc.ID, acc.Cash.StringFixed(2))
}
