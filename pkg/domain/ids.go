// Package domain holds typed identifiers shared across modules.
//
// Distinct Go types prevent a user ID from being passed where a device ID is
// expected; the compiler enforces what would otherwise be a runtime mixup
// between the authenticated and anonymous storage surfaces.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "atelier/pkg/domain-errors"
)

// UserID identifies an authenticated account.
type UserID uuid.UUID

// DeviceID identifies an anonymous guest device. It is generated once per
// device on first load and persisted locally forever.
type DeviceID string

// ToolID identifies a tool view registered in the tool registry.
type ToolID string

const deviceIDPrefix = "guest_"

// ParseUserID validates and converts a string into a UserID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	if strings.TrimSpace(s) == "" {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id is empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "user id is not a valid UUID")
	}
	if u == uuid.Nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id is the nil UUID")
	}
	return UserID(u), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewDeviceID generates a fresh guest device identifier.
func NewDeviceID() DeviceID {
	return DeviceID(deviceIDPrefix + uuid.NewString())
}

// ParseDeviceID validates a persisted guest device identifier.
func ParseDeviceID(s string) (DeviceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "device id is empty")
	}
	if !strings.HasPrefix(s, deviceIDPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "device id lacks guest prefix")
	}
	return DeviceID(s), nil
}

func (id DeviceID) String() string { return string(id) }

// IsGuest reports whether the ID carries the guest prefix.
func (id DeviceID) IsGuest() bool { return strings.HasPrefix(string(id), deviceIDPrefix) }

func (id ToolID) String() string { return string(id) }
