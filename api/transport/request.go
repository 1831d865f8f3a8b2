package transport

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type RegistrationRequest struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type AuthenticationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type ProductRequest struct {
	Code              string  `json:"code"`
	Name              string  `json:"name" validate:"required"`
	Description       string  `json:"description"`
	Image             string  `json:"image"`
	Category          string  `json:"category" validate:"required"`
	Price             float64 `json:"price" validate:"gte=0"`
	Quantity          int     `json:"quantity" validate:"gte=0"`
	InternalReference string  `json:"internalReference"`
	ShellID           int64   `json:"shellId"`
	InventoryStatus   string  `json:"inventoryStatus"`
	Rating            float64 `json:"rating" validate:"gte=0,lte=5"`
	Version           int64   `json:"version" validate:"gte=0"`
}

// Validate runs the struct tags and flattens violations into the
// field-message form the error envelope carries.
func Validate(req interface{}) []string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		switch v.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is mandatory", v.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s is not well formatted", v.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s should be at least %s characters long", v.Field(), v.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", v.Field()))
		}
	}
	return messages
}
