// Package ownership enforces that nested sub-resource operations stay inside
// the owner boundary given by the URL path.
//
// Every nested payload type declares its owner reference statically through
// the Owned interface - there is no reflection and no optional field probing.
// The two checks implement deliberately different failure modes:
//
//   - a payload that declares a different owner than the path is a validation
//     failure (400), caught before anything is persisted;
//   - a stored resource whose owner differs from the path is reported as
//     not found (404), never as forbidden, so a caller cannot probe for the
//     existence of another employee's records.
package ownership

import (
	id "hrportal/pkg/domain"

	dErrors "hrportal/pkg/domain-errors"
)

// Owned is implemented by every nested request payload. OwnerRef returns the
// owner the payload claims to belong to.
type Owned interface {
	OwnerRef() id.UserID
}

// RequireDeclaredOwner rejects a create/update payload whose declared owner
// differs from the path-derived user id. Runs before any persistence.
func RequireDeclaredOwner(pathUserID id.UserID, payload Owned) error {
	if payload.OwnerRef() != pathUserID {
		return dErrors.New(dErrors.CodeValidation, "payload owner does not match path user")
	}
	return nil
}

// RequireStoredOwner compares a loaded resource's stored owner against the
// path-derived user id. Mismatches surface as not_found.
func RequireStoredOwner(pathUserID, storedOwner id.UserID) error {
	if storedOwner != pathUserID {
		return dErrors.New(dErrors.CodeNotFound, "resource not found for this user")
	}
	return nil
}
