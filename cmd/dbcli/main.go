package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/threadbox/backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		printMenu()
		fmt.Print("Select option: ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			createDatabase(cfg)
		case "2":
			migrateSchema(cfg)
		case "3":
			truncateTables(cfg)
		case "4":
			seedData(cfg)
		case "5":
			deleteDatabase(cfg)
		case "0":
			fmt.Println("Exiting...")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}

		fmt.Println()
		fmt.Print("Press Enter to continue...")
		reader.ReadString('\n')
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("    THREADBOX DATABASE CLI MANAGER")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("1. Create database (if missing) + migrate schema")
	fmt.Println("2. Migrate schema only")
	fmt.Println("3. Truncate tables")
	fmt.Println("4. Seed demo data")
	fmt.Println("5. Drop database")
	fmt.Println("0. Exit")
	fmt.Println()
	fmt.Println("----------------------------------------")
}

func getPostgresConn(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.SSLMode,
	)
	return sql.Open("postgres", connStr)
}

func getDBConn(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode,
	)
	return sql.Open("postgres", connStr)
}

func databaseExists(cfg *config.Config) (bool, error) {
	db, err := getPostgresConn(cfg)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var exists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database.Name).Scan(&exists)
	return exists, err
}

func createDatabase(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Create Database + Migrate Schema ---")

	exists, err := databaseExists(cfg)
	if err != nil {
		fmt.Printf("Error checking database: %v\n", err)
		return
	}

	if exists {
		fmt.Printf("Database '%s' already exists.\n", cfg.Database.Name)
	} else {
		db, err := getPostgresConn(cfg)
		if err != nil {
			fmt.Printf("Connection error: %v\n", err)
			return
		}
		defer db.Close()

		if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", cfg.Database.Name)); err != nil {
			fmt.Printf("Error creating database: %v\n", err)
			return
		}
		fmt.Printf("Database '%s' created.\n", cfg.Database.Name)
	}

	migrateSchema(cfg)
}

func migrateSchema(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Migrate Schema ---")

	db, err := getDBConn(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}
	defer db.Close()

	statements := []struct {
		Name string
		SQL  string
	}{
		{
			Name: "Create 'users' table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				username VARCHAR(50) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);`,
		},
		{
			Name: "Create 'comments' table",
			SQL: `CREATE TABLE IF NOT EXISTS comments (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				parent_id UUID REFERENCES comments(id),
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				edited_at TIMESTAMPTZ,
				is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
				deleted_at TIMESTAMPTZ
			);`,
		},
		{
			Name: "Create 'notifications' table",
			SQL: `CREATE TABLE IF NOT EXISTS notifications (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
				message TEXT NOT NULL,
				is_read BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);`,
		},
		{
			Name: "Create index idx_comments_user_id",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments(user_id);",
		},
		{
			Name: "Create index idx_comments_parent_id",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments(parent_id);",
		},
		{
			Name: "Create index idx_comments_created_at",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at);",
		},
		{
			Name: "Create index idx_notifications_user_id",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);",
		},
	}

	for _, stmt := range statements {
		fmt.Printf("Executing: %s...", stmt.Name)
		if _, err := db.Exec(stmt.SQL); err != nil {
			fmt.Printf(" FAILED: %v\n", err)
			return
		}
		fmt.Println(" OK")
	}

	fmt.Println()
	fmt.Println("Schema migration complete!")
}

func truncateTables(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Truncate Tables ---")

	db, err := getDBConn(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}
	defer db.Close()

	if _, err := db.Exec("TRUNCATE notifications, comments, users CASCADE"); err != nil {
		fmt.Printf("Error truncating tables: %v\n", err)
		return
	}
	fmt.Println("Tables truncated.")
}

func seedData(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Seed Demo Data ---")

	db, err := getDBConn(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}
	defer db.Close()

	// Generate bcrypt hash for "password"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	alice := uuid.New()
	bob := uuid.New()
	for _, u := range []struct {
		ID   uuid.UUID
		Name string
	}{{alice, "alice"}, {bob, "bob"}} {
		if _, err := db.Exec(
			"INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3) ON CONFLICT (username) DO NOTHING",
			u.ID, u.Name, string(hashedPassword),
		); err != nil {
			fmt.Printf("Error seeding user %s: %v\n", u.Name, err)
			return
		}
	}

	root := uuid.New()
	reply := uuid.New()
	now := time.Now()
	if _, err := db.Exec(
		"INSERT INTO comments (id, user_id, content, created_at) VALUES ($1, $2, $3, $4)",
		root, alice, "Welcome to the thread!", now.Add(-time.Hour),
	); err != nil {
		fmt.Printf("Error seeding root comment: %v\n", err)
		return
	}
	if _, err := db.Exec(
		"INSERT INTO comments (id, user_id, parent_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		reply, bob, root, "Thanks, glad to be here.", now.Add(-30*time.Minute),
	); err != nil {
		fmt.Printf("Error seeding reply: %v\n", err)
		return
	}
	if _, err := db.Exec(
		"INSERT INTO notifications (id, user_id, comment_id, message) VALUES ($1, $2, $3, $4)",
		uuid.New(), alice, reply, "bob replied to your comment",
	); err != nil {
		fmt.Printf("Error seeding notification: %v\n", err)
		return
	}

	fmt.Println("Seeded 2 users (password: 'password'), 2 comments, 1 notification.")
}

func deleteDatabase(cfg *config.Config) {
	fmt.Println()
	fmt.Println("--- Drop Database ---")
	fmt.Printf("This will permanently drop '%s'. Type the database name to confirm: ", cfg.Database.Name)

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	if strings.TrimSpace(input) != cfg.Database.Name {
		fmt.Println("Aborted.")
		return
	}

	db, err := getPostgresConn(cfg)
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		return
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", cfg.Database.Name)); err != nil {
		fmt.Printf("Error dropping database: %v\n", err)
		return
	}
	fmt.Printf("Database '%s' dropped.\n", cfg.Database.Name)
}
