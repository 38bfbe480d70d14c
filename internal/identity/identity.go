// Package identity resolves who the coordinator is acting for: a signed-in
// user or an anonymous guest device. Every credit and gallery operation is
// scoped by the resolved principal.
package identity

import (
	id "atelier/pkg/domain"
)

// Principal is the closed set of actor kinds.
type Principal interface {
	isPrincipal()
}

// User is an authenticated principal. AuthToken is forwarded to the remote
// store on its behalf.
type User struct {
	UserID    id.UserID
	AuthToken string
}

func (User) isPrincipal() {}

// Guest is an anonymous principal identified by a device-resident ID. The
// network address is approximate and used only for abuse diagnostics.
type Guest struct {
	DeviceID                  id.DeviceID
	ApproximateNetworkAddress string
}

func (Guest) isPrincipal() {}
