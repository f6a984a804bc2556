package handler

import "encoding/json"

// errorResponse is the error envelope rendered by the API error handler.
type errorResponse struct {
	Msg    string            `json:"msg"`
	Errors map[string]string `json:"errors,omitempty"`
}

// --- Credentials ---

type registerRequest struct {
	Name     string `json:"name"     validate:"notblank,max=200"`
	Email    string `json:"email"    validate:"notblank,max=320"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

type adminLoginRequest struct {
	AdminName string `json:"adminName" validate:"notblank"`
	AdminKey  string `json:"adminKey"  validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// --- Users ---

type userSummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// --- Customers ---

type customerRequest struct {
	Name    string `json:"name"    validate:"notblank,max=200"`
	Email   string `json:"email"   validate:"notblank,max=320"`
	Phone   string `json:"phone"   validate:"max=50"`
	Company string `json:"company" validate:"max=200"`
}

type deleteCustomerResponse struct {
	Msg          string `json:"msg"`
	DeletedLeads int64  `json:"deletedLeads"`
}

// --- Leads ---

type createLeadRequest struct {
	Title        string          `json:"title"        validate:"notblank,max=200"`
	Description  string          `json:"description"`
	Value        json.RawMessage `json:"value"        swaggertype:"number"`
	CustomerID   string          `json:"customerId"   validate:"required"`
	AssignedToID string          `json:"assignedToId" validate:"required"`
}

// updateLeadRequest keeps absent fields nil so employee updates can be
// checked for anything beyond status.
type updateLeadRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Value        json.RawMessage `json:"value" swaggertype:"number"`
	CustomerID   *string         `json:"customerId"`
	AssignedToID *string         `json:"assignedToId"`
	Status       *string         `json:"status" enums:"New,Contacted,Qualified,Converted,Lost"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}
