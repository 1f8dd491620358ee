package ownership

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

type ownedPayload struct {
	owner id.UserID
}

func (p ownedPayload) OwnerRef() id.UserID { return p.owner }

func TestRequireDeclaredOwner(t *testing.T) {
	owner := id.UserID(uuid.New())

	t.Run("accepts matching owner", func(t *testing.T) {
		require.NoError(t, RequireDeclaredOwner(owner, ownedPayload{owner: owner}))
	})

	t.Run("rejects mismatched owner as validation error", func(t *testing.T) {
		err := RequireDeclaredOwner(owner, ownedPayload{owner: id.UserID(uuid.New())})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRequireStoredOwner(t *testing.T) {
	owner := id.UserID(uuid.New())

	t.Run("accepts matching owner", func(t *testing.T) {
		require.NoError(t, RequireStoredOwner(owner, owner))
	})

	t.Run("reports foreign-owned resource as not found, not forbidden", func(t *testing.T) {
		err := RequireStoredOwner(owner, id.UserID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
