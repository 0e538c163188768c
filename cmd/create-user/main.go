package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	emailFlag := flag.String("email", "", "Email of the new user (prompted when empty)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	validate := govalidator.New()

	fmt.Println("=== Create New User ===")

	email := *emailFlag
	if email == "" {
		fmt.Print("Enter Email: ")
		email, _ = reader.ReadString('\n')
	}
	email = service.NormalizeEmail(email)
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		fmt.Println("Error: a valid email is required")
		os.Exit(1)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	password := string(bytePassword)
	if err := validate.Var(password, "min=6,max=128"); err != nil {
		fmt.Println("Error: Password must be 6 to 128 characters")
		os.Exit(1)
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil || string(confirm) != password {
		fmt.Println("Error: passwords do not match")
		os.Exit(1)
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{Email: email, PasswordHash: string(hashedPassword)}
	if err := repository.NewUserRepository(pool).Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			fmt.Printf("Error: %s is already registered\n", email)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User %s created with ID: %d\n", user.Email, user.ID)
}
