package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"healthadmin-backend/ledger"
	"healthadmin-backend/utils"
)

type RegisterDTO struct {
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
	PasswordConfirm    string `json:"password_confirm" validate:"required,eqfield=Password"`
	CompanyName        string `json:"company_name" validate:"required"`
	RegistrationNumber string `json:"registration_number"`
	Address            string `json:"address" validate:"required"`
	City               string `json:"city" validate:"required"`
	Country            string `json:"country" validate:"required"`
	Zip                string `json:"zip"`
	Homepage           string `json:"homepage" validate:"omitempty,url"`
	Salutation         string `json:"salutation"`
	Title              string `json:"title"`
	PhoneNumber        string `json:"phone_number"`
	MobileNumber       string `json:"mobile_number"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type StaffCreateDTO struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=admin staff"`
}

type ProviderCreateDTO struct {
	Code         string `json:"code" validate:"required,max=32"`
	Name         string `json:"name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Zip          string `json:"zip"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
}

type ProviderUpdateDTO struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Address      *string `json:"address" validate:"omitempty,min=1"`
	City         *string `json:"city" validate:"omitempty,min=1"`
	Country      *string `json:"country" validate:"omitempty,min=1"`
	Zip          *string `json:"zip"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
	Active       *bool   `json:"active"`
}

type ClientCreateDTO struct {
	CompanyName  string `json:"company_name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Zip          string `json:"zip"`
	Homepage     string `json:"homepage" validate:"omitempty,url"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
}

type ClientUpdateDTO struct {
	Address      *string `json:"address" validate:"omitempty,min=1"`
	City         *string `json:"city" validate:"omitempty,min=1"`
	Country      *string `json:"country" validate:"omitempty,min=1"`
	Zip          *string `json:"zip"`
	Homepage     *string `json:"homepage" validate:"omitempty,url"`
	Email        *string `json:"email" validate:"omitempty,email"`
	FirstName    *string `json:"first_name" validate:"omitempty,min=1"`
	LastName     *string `json:"last_name" validate:"omitempty,min=1"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
	Salutation   *string `json:"salutation"`
	Title        *string `json:"title"`
	Active       *bool   `json:"active"`
}

type EnrolleeCreateDTO struct {
	PolicyNumber string     `json:"policy_number" validate:"required,max=32"`
	ClientID     *string    `json:"client_id" validate:"omitempty,uuid"`
	FirstName    string     `json:"first_name" validate:"required"`
	LastName     string     `json:"last_name" validate:"required"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Email        string     `json:"email" validate:"omitempty,email"`
	PhoneNumber  string     `json:"phone_number"`
}

type ServiceCreateDTO struct {
	Code          string          `json:"code" validate:"required,max=32"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

type ServiceBatchDTO struct {
	Services []ServiceCreateDTO `json:"services" validate:"required,min=1,dive"`
}

type ServiceUpdateDTO struct {
	Name          *string          `json:"name" validate:"omitempty,min=1"`
	Description   *string          `json:"description"`
	UnitOfMeasure *string          `json:"unit_of_measure"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	Active        *bool            `json:"active"`
}

type PaymentBatchCreateDTO struct {
	Reference   string     `json:"reference" validate:"required,max=64"`
	Description string     `json:"description"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

// EntryDTO is one line entry of an invoice or payment batch detail.
type EntryDTO struct {
	ServiceID      *string         `json:"service_id" validate:"omitempty,uuid"`
	Reference      string          `json:"reference"`
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
}

func (e EntryDTO) toNewEntry() ledger.NewEntry {
	return ledger.NewEntry{
		ServiceID:      e.ServiceID,
		Reference:      e.Reference,
		Name:           e.Name,
		Description:    e.Description,
		Quantity:       e.Quantity,
		UnitOfMeasure:  e.UnitOfMeasure,
		UnitCost:       e.UnitCost,
		DiscountAmount: e.DiscountAmount,
		TaxAmount:      e.TaxAmount,
	}
}

type AggregateCreateDTO struct {
	Number     string     `json:"number" validate:"omitempty,max=64"`
	ProviderID string     `json:"provider_id" validate:"required"`
	EnrolleeID *string    `json:"enrollee_id"`
	ClientID   *string    `json:"client_id"`
	Notes      string     `json:"notes"`
	DueDate    *time.Time `json:"due_date"`
	Entries    []EntryDTO `json:"entries" validate:"required,min=1,dive"`
}

// EntryPatchDTO distinguishes absent keys from explicit nulls.
type EntryPatchDTO struct {
	ServiceID      utils.Optional[string]          `json:"service_id"`
	Reference      utils.Optional[string]          `json:"reference"`
	Name           utils.Optional[string]          `json:"name"`
	Description    utils.Optional[string]          `json:"description"`
	Quantity       utils.Optional[decimal.Decimal] `json:"quantity"`
	UnitOfMeasure  utils.Optional[string]          `json:"unit_of_measure"`
	UnitCost       utils.Optional[decimal.Decimal] `json:"unit_cost"`
	DiscountAmount utils.Optional[decimal.Decimal] `json:"discount_amount"`
	TaxAmount      utils.Optional[decimal.Decimal] `json:"tax_amount"`
}

func (p EntryPatchDTO) toPatch() ledger.EntryPatch {
	return ledger.EntryPatch{
		ServiceID:      p.ServiceID,
		Reference:      p.Reference,
		Name:           p.Name,
		Description:    p.Description,
		Quantity:       p.Quantity,
		UnitOfMeasure:  p.UnitOfMeasure,
		UnitCost:       p.UnitCost,
		DiscountAmount: p.DiscountAmount,
		TaxAmount:      p.TaxAmount,
	}
}

type PaymentDTO struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=32"`
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
	PaidAt    *time.Time      `json:"paid_at"`
}

type CancelDTO struct {
	Reason string `json:"reason" validate:"required"`
}
