package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	reg, err := NewRegistry(
		NewOAuth2Factory("github", "github.v3"),
		NewOAuth2Factory("google", "google.people"),
	)
	require.NoError(t, err)

	f, err := reg.Factory("google")
	require.NoError(t, err)
	assert.Equal(t, APIType("google.people"), f.APIType())

	f, err = reg.FactoryForAPI("github.v3")
	require.NoError(t, err)
	assert.Equal(t, "github", f.ProviderID())

	_, err = reg.Factory("myspace")
	assert.ErrorIs(t, err, ErrFactoryNotFound)
	_, err = reg.FactoryForAPI("myspace.v1")
	assert.ErrorIs(t, err, ErrFactoryNotFound)

	assert.Equal(t, []string{"github", "google"}, reg.RegisteredProviderIDs())
}

func TestRegistry_RejectsConflicts(t *testing.T) {
	reg, err := NewRegistry(NewOAuth2Factory("github", "github.v3"))
	require.NoError(t, err)

	assert.Error(t, reg.Register(NewOAuth2Factory("github", "github.v4")))
	assert.Error(t, reg.Register(NewOAuth2Factory("ghe", "github.v3")))
	assert.Error(t, reg.Register(NewOAuth2Factory("", "x")))
	assert.Error(t, reg.Register(nil))

	_, err = NewRegistry(NewOAuth2Factory("a", "x"), NewOAuth2Factory("a", "y"))
	assert.Error(t, err)
}

func TestRegistry_ProviderWithoutAPIType(t *testing.T) {
	reg, err := NewRegistry(NewOAuth2Factory("plain", ""), NewOAuth2Factory("other", ""))
	require.NoError(t, err)

	_, err = reg.Factory("plain")
	assert.NoError(t, err)
	_, err = reg.FactoryForAPI("")
	assert.ErrorIs(t, err, ErrFactoryNotFound)
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	ids := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, reg.Register(NewOAuth2Factory(id, APIType(id+".api"))))
		}(id)
		go func() {
			defer wg.Done()
			_ = reg.RegisteredProviderIDs()
		}()
	}
	wg.Wait()
	assert.ElementsMatch(t, ids, reg.RegisteredProviderIDs())
}
