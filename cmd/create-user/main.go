// Command create-user provisions a user directory entry.
//
//	go run ./cmd/create-user --email ada@example.com --password s3cretpass --role Admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"workforce-api/app"
	"workforce-api/config"
	"workforce-api/logger"

	flag "github.com/spf13/pflag"
)

func main() {
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password (min 8 chars)")
	name := flag.String("name", "", "display name")
	employeeCode := flag.String("employee-code", "", "linked employee code")
	roles := flag.StringSlice("role", []string{"Employee"}, "role to grant; repeat for several")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadConfig(".")
	logger.Init()

	if err := checkBackend(config.AppConfig.Database.Backend); err != nil {
		logger.Log.Fatal(err)
	}

	a, cleanup, err := app.Setup(context.Background())
	if err != nil {
		logger.Log.Fatalf("Error initializing application: %v", err)
	}
	defer cleanup()

	displayName := *name
	if displayName == "" {
		displayName = *email
	}

	user, err := a.Users.CreateUser(context.Background(), *email, displayName, *employeeCode, *password, *roles)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create user")
		cleanup()
		os.Exit(1)
	}
	fmt.Printf("created user %s id=%s roles=%v\n", user.Email, user.ID, *roles)
}

// checkBackend refuses storage that would not outlive this process.
func checkBackend(backend string) error {
	if backend == "memory" {
		return errors.New("database.backend is memory; a user created here would be lost on exit")
	}
	return nil
}
