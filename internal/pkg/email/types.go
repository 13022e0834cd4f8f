// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeDealerCredentials EmailType = "dealer_credentials"
	EmailTypeNewOrder          EmailType = "new_order"
	EmailTypeCheck             EmailType = "check"
)

// Email represents an email message
type Email struct {
	To          []string               `json:"to"`
	Subject     string                 `json:"subject"`
	HTMLContent string                 `json:"html_content"`
	Type        EmailType              `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName  string `json:"site_name"`
	SiteURL   string `json:"site_url"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Year      int    `json:"year"`
}

// DealerCredentialsData contains data for the dealer welcome email
type DealerCredentialsData struct {
	EmailTemplateData
	Username string `json:"username"`
	Password string `json:"password"`
	LoginURL string `json:"login_url"`
}

// NewOrderData contains data for the staff new-order notice
type NewOrderData struct {
	EmailTemplateData
	OrderNumber   string      `json:"order_number"`
	OrderDate     string      `json:"order_date"`
	BuyerName     string      `json:"buyer_name"`
	BuyerPhone    string      `json:"buyer_phone"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	PaymentMethod string      `json:"payment_method"`
	Note          string      `json:"note"`
	Items         []OrderItem `json:"items"`
	Subtotal      string      `json:"subtotal"`
	Shipping      string      `json:"shipping"`
	Total         string      `json:"total"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:  siteName,
		SiteURL:   siteURL,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}
