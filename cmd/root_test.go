package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{{"serve"}, {"version"}, {"reconcile"}, {"reminders", "rehydrate"}} {
		c, _, err := root.Find(path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, path[len(path)-1], c.Name())
		}
	}

	reconcile, _, _ := root.Find([]string{"reconcile"})
	assert.NotNil(t, reconcile.Flags().Lookup("grace"))
}
