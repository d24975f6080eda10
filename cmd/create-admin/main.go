// Command create-admin seeds the first admin account, or promotes an
// existing account to admin, and prints a bearer token for it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pclub/portal/api/internal/config"
	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/repository"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/migrations"
	"github.com/pclub/portal/api/pkg/jwt"
)

func main() {
	email := flag.String("email", "", "Admin email (required)")
	name := flag.String("name", "Admin", "Display name for a new account")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Password for a new account (default $ADMIN_PASSWORD)")
	migrate := flag.Bool("migrate", true, "Apply the schema before seeding")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if *migrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying schema: %v\n", err)
			os.Exit(1)
		}
	}

	userRepo := repository.NewUserRepository(db)
	admins := service.NewAdminService(service.AdminServiceConfig{
		UserRepo:  userRepo,
		EventRepo: repository.NewEventRepository(db),
		Stats:     repository.NewStatsRepository(db),
	})

	user, created, err := admins.SeedAdmin(ctx, *email, *name, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding admin: %v\n", err)
		os.Exit(1)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		AccessTTL: cfg.JWT.AccessTTL,
		OTPTTL:    cfg.JWT.OTPTTL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(jwtService.AccessTTL().Seconds()),
			"user_id":      user.ID,
			"email":        user.Email,
			"created":      created,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	action := "Promoted existing account"
	if created {
		action = "Created admin account"
	}
	fmt.Println(action)
	fmt.Println("=====================")
	fmt.Printf("User ID:  %s\n", user.ID)
	fmt.Printf("Email:    %s\n", user.Email)
	fmt.Printf("Role:     %s\n", user.Role)
	fmt.Printf("Expires:  %s\n", time.Now().Add(jwtService.AccessTTL()).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' http://localhost:%s/v1/admin/dashboard\n", token[:min(len(token), 50)], cfg.Server.Port)
}
