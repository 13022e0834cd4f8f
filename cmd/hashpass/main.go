// cmd/hashpass/main.go prints the bcrypt hash to put in ADMIN_PASSWORD_HASH
package main

import (
	"fmt"
	"os"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run ./cmd/hashpass <password>")
	}
	password := os.Args[1]

	passwords := auth.NewPasswordManager(&config.Config{
		Security: config.SecurityConfig{BcryptCost: 12},
	})
	if err := passwords.ValidatePassword(password); err != nil {
		logrus.WithError(err).Fatal("Password does not meet the policy")
	}

	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Fatal("Error generating hash")
	}
	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.WithError(err).Fatal("Hash verification failed")
	}

	fmt.Println(hash)
}
