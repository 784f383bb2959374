// Package main seeds a local database with a demo user and a few lists.
//
// Usage:
//
//	go run ./cmd/seed -data-path ~/ListenUpLists
//	go run ./cmd/seed -driver sqlite -username alice -password secret -lists "Groceries,Weekend Chores"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/listenup-lists/internal/config"
	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/service"
	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/listenupapp/listenup-lists/internal/store/badgerdb"
	"github.com/listenupapp/listenup-lists/internal/store/sqlite"
)

var (
	dataPath = flag.String("data-path", os.ExpandEnv("$HOME/ListenUpLists"), "Directory holding the database")
	driver   = flag.String("driver", config.DriverBadger, "Store backend: badger or sqlite")
	username = flag.String("username", "", "Username to seed (default: demo_<run id>)")
	password = flag.String("password", "listenup", "Password for a newly created user")
	lists    = flag.String("lists", "Groceries,Chores", "Comma-separated list names to create")
	items    = flag.String("items", "", "Comma-separated items appended to every list")
)

func main() {
	flag.Parse()

	runID := uuid.New().String()
	if *username == "" {
		*username = "demo_" + runID[:8]
	}

	fmt.Printf("Seed run %s\n", runID)

	s, err := openStore(*driver, *dataPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	authService := service.NewAuthService(s, s, 24*time.Hour, nil, nil)
	listService := service.NewListService(s, nil, nil)

	userID, err := ensureUser(ctx, authService, s, *username, *password)
	if err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	for _, name := range splitNames(*lists) {
		list, created, err := listService.ViewList(ctx, userID, name)
		if err != nil {
			log.Printf("Skipping list %q: %v", name, err)
			continue
		}
		if created {
			fmt.Printf("Created list %s\n", list.Key)
		}

		for _, item := range splitNames(*items) {
			if _, err := listService.AddItem(ctx, userID, list.Key, service.NewItemRequest{Name: item}); err != nil {
				log.Printf("Failed to add %q to %s: %v", item, list.Key, err)
			}
		}
	}

	summaries, err := listService.Dashboard(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to load dashboard: %v", err)
	}

	fmt.Printf("\n=== %s ===\n", *username)
	for _, sum := range summaries {
		fmt.Printf("  %-30s %3d items  /lists/%s\n", sum.Title, sum.ItemCount, sum.Key)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	fmt.Printf("\n%d users in store\n", len(users))
}

func openStore(driver, dataPath string) (store.Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverSQLite:
		return sqlite.Open(filepath.Join(dataPath, "lists.db"), nil)
	case config.DriverBadger:
		return badgerdb.New(filepath.Join(dataPath, "db"), nil)
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

// ensureUser registers the seed user, or reuses it when the name is taken.
func ensureUser(ctx context.Context, authService *service.AuthService, users store.Users, username, password string) (string, error) {
	result, err := authService.Register(ctx, service.Credentials{Username: username, Password: password}, service.ClientInfo{UserAgent: "seed"})
	if err == nil {
		// Register signs the user in; the seed run has no use for that session.
		if err := authService.Logout(ctx, result.Session.ID); err != nil {
			return "", err
		}
		fmt.Printf("Created user %s (%s)\n", result.User.Username, result.User.ID)
		return result.User.ID, nil
	}
	if !errors.Is(err, domainerrors.ErrDuplicateUsername) {
		return "", err
	}

	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	fmt.Printf("Using existing user %s (%s)\n", user.Username, user.ID)
	return user.ID, nil
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
