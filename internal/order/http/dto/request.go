// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	orderDomain "github.com/allisson/orderflow/internal/order/domain"
	customValidation "github.com/allisson/orderflow/internal/validation"
)

// StartOrderRequest contains the parameters for starting an order lifecycle.
// The order id is extracted from the URL parameter, not the request body.
type StartOrderRequest struct {
	PaymentID string `json:"payment_id"`
}

// Validate checks if the start order request is valid.
func (r *StartOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PaymentID,
			validation.Required,
			customValidation.Identifier,
		),
	)
}

// CancelOrderRequest contains the optional reason for a cancel signal.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the cancel order request is valid.
func (r *CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.Length(0, 500),
		),
	)
}

// UpdateAddressRequest contains the new shipping destination.
type UpdateAddressRequest struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Validate checks if the update address request is valid.
func (r *UpdateAddressRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Line1, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.State, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Zip, validation.Required, customValidation.ZipCode),
	)
}

// Address converts the request to the domain address.
func (r *UpdateAddressRequest) Address() orderDomain.Address {
	return orderDomain.Address{
		Line1: r.Line1,
		City:  r.City,
		State: r.State,
		Zip:   r.Zip,
	}
}
