package domain

import (
	"strings"
	"time"
)

// Customer is a company or person the CRM tracks leads for.
type Customer struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize trims every field and lower-cases the email.
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
}

// Validate checks the invariants that must hold before a customer is stored.
func (c *Customer) Validate() error {
	if c.Name == "" || c.Email == "" {
		return Validation("Name and email are required.")
	}
	if !IsEmail(c.Email) {
		return Validation("Please fill a valid email address.")
	}
	return nil
}

// IsEmail accepts local@host.tld where the TLD has at least two characters.
func IsEmail(s string) bool {
	at := strings.LastIndexByte(s, '@')
	if at < 1 || at == len(s)-1 || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	host := s[at+1:]
	dot := strings.LastIndexByte(host, '.')
	return dot > 0 && dot < len(host)-2
}
