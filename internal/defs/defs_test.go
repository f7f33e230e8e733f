package defs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/geom"
)

const sample = `
definitions:
  - name: atdm:rock
    category: static
    model: models/rock.lwo
    size: [16, 12, 8]
    args:
      hide_distance: "512"
  - name: atdm:bottle
    category: movable
    model: models/bottle.lwo
    size: [4, 4, 10]
  - name: atdm:lamp
    category: lihgt
    model: models/lamp.lwo
`

func TestParse(t *testing.T) {
	tbl, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	rock, ok := tbl.Lookup("atdm:rock")
	require.True(t, ok)
	assert.Equal(t, geom.V(16, 12, 8), rock.Size)
	assert.True(t, rock.Caps.Combinable)
	assert.True(t, rock.Caps.Static)
	assert.Equal(t, "512", rock.Args["hide_distance"])

	bottle, ok := tbl.Lookup("atdm:bottle")
	require.True(t, ok)
	assert.False(t, bottle.Caps.Combinable)
	assert.True(t, bottle.Caps.Movable)
}

func TestParse_UnknownCategoryFallsBackToGeneric(t *testing.T) {
	tbl, err := Parse([]byte(sample))
	require.NoError(t, err)

	lamp, ok := tbl.Lookup("atdm:lamp")
	require.True(t, ok)
	assert.Equal(t, DefaultCategory, lamp.Category)
	assert.True(t, lamp.Caps.Combinable)
}

func TestParse_MissingName(t *testing.T) {
	_, err := Parse([]byte("definitions:\n  - model: x\n"))
	assert.Error(t, err)
}

func TestCategoryTable_NonCombinable(t *testing.T) {
	for _, name := range []string{"movable", "mover", "door", "breakable", "target", "actor", "ragdoll", "attachment", "animated", "weapon", "light"} {
		t.Run(name, func(t *testing.T) {
			c, ok := CategoryFor(name)
			require.True(t, ok)
			assert.False(t, c.Combinable)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"atdm:bottle", "atdm:lamp", "atdm:rock"}, tbl.Names())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
