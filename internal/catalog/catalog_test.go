package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `Decimal,Hex,Alpha Tag,Mode,Description,Tag,Category
1001,3e9,"FIRE DISP ",D,"Fire Dispatch ", Fire Dispatch ,"Fire "
1002,3ea,PD MAIN,D,Police Main,Law Dispatch,Police
"1003","3eb","EMS 1","DE","EMS Ops","EMS-Tac","EMS"

1004,3ec,BROKEN,D
1005,3ed,NO DESC,D,,Interop,Misc
abc,3ee,BAD ID,D,Bad,Misc,Misc
`

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(testTable))
	require.NoError(t, err)

	require.Equal(t, 3, c.Len())

	e, ok := c.Lookup("1001")
	require.True(t, ok)
	assert.Equal(t, "3e9", e.Hex)
	assert.Equal(t, "FIRE DISP", e.AlphaTag)
	assert.Equal(t, "D", e.Mode)
	assert.Equal(t, "Fire Dispatch", e.Description)
	assert.Equal(t, "Fire Dispatch", e.Tag)
	assert.Equal(t, "Fire", e.Category)

	e, ok = c.Lookup("1003")
	require.True(t, ok)
	assert.Equal(t, "EMS 1", e.AlphaTag)
	assert.Equal(t, "EMS", e.Category)

	for _, id := range []string{"1004", "1005", "abc", "Decimal", ""} {
		_, ok := c.Lookup(id)
		assert.False(t, ok, id)
	}
}

func TestMalformedRowDoesNotAbort(t *testing.T) {
	src := "Decimal,Hex,Alpha Tag,Mode,Description,Tag,Category\n" +
		"1,1,A,D,First,T,C\n" +
		"2,2,B,D\n" +
		"3,3,C,D,Third,T,C\n"

	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"1", "3"}, c.IDs())
}

func TestLoadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tg.csv")
	require.NoError(t, os.WriteFile(name, []byte(testTable), 0o600))

	c, err := LoadFile(name)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
}

func TestAllIsCopy(t *testing.T) {
	c, err := Load(strings.NewReader(testTable))
	require.NoError(t, err)

	all := c.All()
	all["1001"].AlphaTag = "changed"
	delete(all, "1002")

	e, _ := c.Lookup("1001")
	assert.Equal(t, "FIRE DISP", e.AlphaTag)
	assert.Equal(t, 3, c.Len())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog

	_, ok := c.Lookup("1001")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.All())
	assert.Empty(t, c.IDs())
}

func TestConcurrentLookup(t *testing.T) {
	c, err := Load(strings.NewReader(testTable))
	require.NoError(t, err)

	wg := new(sync.WaitGroup)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 1000; j++ {
				_, ok := c.Lookup("1002")
				assert.True(t, ok)
			}
		}()
	}

	wg.Wait()
}
