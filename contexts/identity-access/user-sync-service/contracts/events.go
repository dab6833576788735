// Package contracts holds the provider wire payloads for identity lifecycle
// events and converts them into validated, typed event bodies. Raw JSON
// never crosses this boundary: handlers only ever see ports payload types.
package contracts

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "pms/contexts/identity-access/user-sync-service/domain/errors"
	"pms/contexts/identity-access/user-sync-service/ports"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures against wire field names, not Go struct names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type emailAddressDTO struct {
	EmailAddress string `json:"email_address" validate:"required,email"`
	Primary      bool   `json:"primary"`
	Verified     bool   `json:"verified"`
}

type createUserDTO struct {
	ID             string            `json:"id" validate:"required,max=128"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	FullName       string            `json:"full_name"`
	EmailAddresses []emailAddressDTO `json:"email_addresses" validate:"required,min=1,dive"`
	ImageURL       string            `json:"image_url" validate:"omitempty,url"`
}

type updateUserDTO struct {
	ID             string            `json:"id" validate:"required,max=128"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	FullName       string            `json:"full_name"`
	EmailAddresses []emailAddressDTO `json:"email_addresses" validate:"omitempty,dive"`
	ImageURL       string            `json:"image_url" validate:"omitempty,url"`
}

type deleteUserDTO struct {
	ID string `json:"id" validate:"required,max=128"`
}

// DecodeCreatePayload validates a raw identity.create body. Any single
// invalid field rejects the whole event.
func DecodeCreatePayload(raw json.RawMessage) (ports.CreatePayload, error) {
	var dto createUserDTO
	if err := decodeInto(raw, &dto); err != nil {
		return ports.CreatePayload{}, err
	}
	if err := validate.Struct(dto); err != nil {
		return ports.CreatePayload{}, firstFieldFailure(err)
	}
	return ports.CreatePayload{
		ExternalID: dto.ID,
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		FullName:   dto.FullName,
		Emails:     toEmailCandidates(dto.EmailAddresses),
		ImageURL:   dto.ImageURL,
	}, nil
}

// DecodeUpdatePayload validates a raw identity.update body. All fields are
// optional deltas except the external id.
func DecodeUpdatePayload(raw json.RawMessage) (ports.UpdatePayload, error) {
	var dto updateUserDTO
	if err := decodeInto(raw, &dto); err != nil {
		return ports.UpdatePayload{}, err
	}
	if err := validate.Struct(dto); err != nil {
		return ports.UpdatePayload{}, firstFieldFailure(err)
	}
	return ports.UpdatePayload{
		ExternalID: dto.ID,
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		FullName:   dto.FullName,
		Emails:     toEmailCandidates(dto.EmailAddresses),
		ImageURL:   dto.ImageURL,
	}, nil
}

// DecodeDeletePayload validates a raw identity.delete body, which only
// needs the external id.
func DecodeDeletePayload(raw json.RawMessage) (ports.DeletePayload, error) {
	var dto deleteUserDTO
	if err := decodeInto(raw, &dto); err != nil {
		return ports.DeletePayload{}, err
	}
	if err := validate.Struct(dto); err != nil {
		return ports.DeletePayload{}, firstFieldFailure(err)
	}
	return ports.DeletePayload{ExternalID: dto.ID}, nil
}

// ExtractExternalID pulls the provider id out of a raw payload on a
// best-effort basis so failures can be logged with an identity correlator
// even when full validation rejects the event.
func ExtractExternalID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.ID)
}

func decodeInto(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return domainerrors.ErrEmptyPayload
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return domainerrors.NewValidationError("payload", "json")
	}
	return nil
}

func firstFieldFailure(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	first := fieldErrors[0]
	return domainerrors.NewValidationError(fieldPath(first.Namespace()), first.Tag())
}

// fieldPath strips the DTO struct name from the validator namespace,
// leaving the wire path, e.g. "email_addresses[0].email_address".
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func toEmailCandidates(items []emailAddressDTO) []ports.EmailCandidate {
	if len(items) == 0 {
		return nil
	}
	candidates := make([]ports.EmailCandidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, ports.EmailCandidate{
			Address:  item.EmailAddress,
			Primary:  item.Primary,
			Verified: item.Verified,
		})
	}
	return candidates
}
