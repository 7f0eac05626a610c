package transacter_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardedkit/transacter-go/transacter"
)

func Test_NewID_GeneratesValidTimeOrderedIDs(t *testing.T) {
	id, err := transacter.NewID()
	require.NoError(t, err)

	parsed, parseErr := uuid.Parse(id.String())
	require.NoError(t, parseErr)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func Test_NewChildID_ScopesTheLocalIDToTheParent(t *testing.T) {
	parent, err := transacter.NewID()
	require.NoError(t, err)

	child, err := transacter.NewChildID(parent)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(child.String(), parent.String()+"/"), "child id should start with the parent id")

	local := strings.TrimPrefix(child.String(), parent.String()+"/")
	_, parseErr := uuid.Parse(local)
	assert.NoError(t, parseErr, "local part should be a valid id")
}

func Test_NewChildID_RejectsMissingParent(t *testing.T) {
	_, err := transacter.NewChildID("")

	assert.ErrorIs(t, err, transacter.ErrMissingParentID)
}

func Test_EntityKind_String(t *testing.T) {
	assert.Equal(t, "root", transacter.KindRoot.String())
	assert.Equal(t, "unsharded", transacter.KindUnsharded.String())
	assert.Equal(t, "child", transacter.KindChild.String())
	assert.Equal(t, "unknown", transacter.EntityKind(0).String())
}
