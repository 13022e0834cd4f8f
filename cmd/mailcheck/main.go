// cmd/mailcheck/main.go sends a test message through the configured email provider
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/pkg/email"
	"github.com/orient-appliances/storefront/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run ./cmd/mailcheck <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg)

	mailer, err := email.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up email")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = mailer.SendEmail(ctx, &email.Email{
		To:          []string{os.Args[1]},
		Subject:     fmt.Sprintf("%s email check", cfg.App.CompanyName),
		HTMLContent: fmt.Sprintf("<p>Email delivery through <b>%s</b> is working.</p>", cfg.Email.Provider),
		Type:        email.EmailTypeCheck,
	})
	if err != nil {
		log.WithError(err).Fatal("Email check failed")
	}

	log.WithField("provider", cfg.Email.Provider).Info("Email check sent")
}
