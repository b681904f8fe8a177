package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	dbfs "github.com/skillswap/swapd/db"
	"github.com/skillswap/swapd/internal/config"
	"github.com/skillswap/swapd/internal/db"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/repository/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	adminID := flag.String("admin", "", "Grant the admin role to this existing user id")
	flag.Parse()

	ctx := context.Background()
	if err := config.LoadEnvFile(""); err != nil {
		fmt.Fprintf(os.Stderr, "Env file error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// run migrations and seed using internal/db.Migrate
	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Database initialized successfully.")

	if *adminID == "" {
		return
	}
	repo := sqlite.New(database, nil)
	u, err := repo.GetUser(ctx, *adminID)
	if err != nil || u == nil {
		fmt.Fprintf(os.Stderr, "Admin grant error: user %q not found (%v)\n", *adminID, err)
		os.Exit(1)
	}
	if err := repo.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "Admin grant error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Granted admin role to %s.\n", u.ID)
}
