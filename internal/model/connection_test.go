package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionData_Key(t *testing.T) {
	d := ConnectionData{ProviderID: "github", ProviderUserID: "42", Rank: 3}
	assert.Equal(t, ConnectionKey{ProviderID: "github", ProviderUserID: "42"}, d.Key())
	assert.Equal(t, "github:42", d.Key().String())
}
