package models

// ContactPerson is the primary contact of a tenant company.
type ContactPerson struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	FirstName    string `json:"first_name" gorm:"not null"`
	LastName     string `json:"last_name" gorm:"not null"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
}
