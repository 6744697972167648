package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	static, err := Static()
	require.NoError(t, err)

	data, err := fs.ReadFile(static, "style.css")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestTemplates(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "history.html", "edit.html", "error.html", "header", "footer"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}
