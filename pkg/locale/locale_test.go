package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netlogdiff/netlogdiff/pkg/locale"
)

func TestLoadEnglish(t *testing.T) {
	cat, err := locale.Load("en")
	require.NoError(t, err)
	assert.Equal(t, "Identical", cat.Get("status_identical"))
}

func TestLoadOverlayLanguage(t *testing.T) {
	cat, err := locale.Load("pl")
	require.NoError(t, err)
	assert.Equal(t, "Różne", cat.Get("status_different"))
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	cat, err := locale.Load("xx")
	require.NoError(t, err)
	assert.Equal(t, "Identical", cat.Get("status_identical"))
}

func TestUnknownKeyFallsBackToKey(t *testing.T) {
	cat, err := locale.Load("en")
	require.NoError(t, err)
	assert.Equal(t, "nonexistent_key", cat.Get("nonexistent_key"))
}
