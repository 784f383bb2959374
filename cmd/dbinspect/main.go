// Package main prints a read-only summary of a Badger database.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/normalize"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ListenUpLists/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	usernames := make(map[string]string)
	listsByOwner := make(map[string][]domain.List)
	var live, expired int
	now := time.Now()

	err = db.View(func(txn *badger.Txn) error {
		if err := scan(txn, "user:", func(u *domain.User) {
			usernames[u.ID] = u.Username
		}); err != nil {
			return err
		}
		if err := scan(txn, "list:", func(l *domain.List) {
			listsByOwner[l.OwnerID] = append(listsByOwner[l.OwnerID], *l)
		}); err != nil {
			return err
		}
		return scan(txn, "session:", func(s *domain.Session) {
			if s.IsExpiredAt(now) {
				expired++
			} else {
				live++
			}
		})
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	totalLists, totalItems := 0, 0
	for userID, name := range usernames {
		fmt.Printf("User: %s\n", name)
		fmt.Printf("  ID: %s\n", userID)
		for _, l := range listsByOwner[userID] {
			fmt.Printf("    %-30s %3d items\n", normalize.Title(l.Key), len(l.Items))
			totalLists++
			totalItems += len(l.Items)
		}
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d\n", len(usernames))
	fmt.Printf("Lists: %d\n", totalLists)
	fmt.Printf("Items: %d\n", totalItems)
	fmt.Printf("Sessions: %d live, %d expired\n", live, expired)
}

// scan decodes every primary record under prefix, skipping index keys.
func scan[T any](txn *badger.Txn, prefix string, fn func(*T)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())

		// Skip index keys
		if strings.HasPrefix(key, prefix+"idx:") {
			continue
		}

		err := item.Value(func(val []byte) error {
			var v T
			if err := json.Unmarshal(val, &v); err != nil {
				return err
			}
			fn(&v)
			return nil
		})
		if err != nil {
			log.Printf("Error reading %s: %v", key, err)
		}
	}
	return nil
}
