package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_AuthKinds(t *testing.T) {
	local := &User{Username: "alice", PasswordHash: "$argon2id$..."}
	assert.True(t, local.HasPassword())
	assert.False(t, local.IsFederated())

	federated := &User{Username: "ada_lovelace", GoogleID: "1234"}
	assert.False(t, federated.HasPassword())
	assert.True(t, federated.IsFederated())
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Username: "ada_lovelace", DisplayName: "Ada Lovelace"}).Name())
	assert.Equal(t, "alice", (&User{Username: "alice"}).Name())
}
