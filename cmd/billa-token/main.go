// billa-token mints a bearer token for local development and
// optionally seeds the matching user record. Token issuance in
// production happens upstream; this tool only covers dev setups.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"billa/internal/auth"
	"billa/internal/cli"
	"billa/internal/core"
)

func main() {
	ownerID := flag.String("owner", "", "owner id to issue the token for (generated when empty)")
	email := flag.String("email", "", "seed a user record with this email")
	name := flag.String("name", "", "display name for the seeded user")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	id := *ownerID
	if id == "" {
		id = uuid.NewString()
	}

	if *email != "" {
		st := cli.OpenStore(logger, cfg)
		defer st.Close()

		user := core.User{
			ID:        id,
			Email:     *email,
			Name:      *name,
			CreatedAt: time.Now(),
		}
		if err := user.Validate(); err != nil {
			logger.Error("Invalid user", "error", err)
			os.Exit(1)
		}
		if err := st.CreateUser(context.Background(), user); err != nil {
			logger.Error("Failed to seed user", "error", err, "owner_id", id)
			os.Exit(1)
		}
		logger.Info("Seeded user", "owner_id", id, "email", *email)
	}

	manager := auth.NewManager(cfg.JWTSecret, *ttl)
	token, err := manager.Issue(id, time.Now())
	if err != nil {
		logger.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Printf("owner_id: %s\ntoken: %s\n", id, token)
}
