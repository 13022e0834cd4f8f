// internal/pkg/email/api_providers.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ResendEmailRequest is the body of a Resend send call
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Tags    []Tag    `json:"tags,omitempty"`
}

// Tag labels a Resend message
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResendResponse is returned by a successful send
type ResendResponse struct {
	ID string `json:"id"`
}

// sendResendEmail sends email using Resend API
func (s *EmailService) sendResendEmail(ctx context.Context, email *Email) error {
	apiKey := s.config.Email.APIKey
	if apiKey == "" {
		return fmt.Errorf("Resend API key not configured")
	}

	reqData := ResendEmailRequest{
		From:    s.from(),
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
		Tags:    []Tag{{Name: "type", Value: string(email.Type)}},
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("failed to marshal Resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.resendURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create Resend request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Resend API returned status %d", resp.StatusCode)
	}

	var out ResendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.ID != "" {
		s.log.WithFields(logrus.Fields{"email_id": out.ID, "type": email.Type}).Debug("email sent")
	}

	return nil
}
