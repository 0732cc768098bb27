package disk

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	dd := New("/tmp/basket")
	assert.Equal(t, "/tmp/basket/datasets/retail/", dd.GetDatasetDir("retail"))

	path, name := dd.GetTransactionsFilePathAndName("retail")
	assert.Equal(t, "/tmp/basket/datasets/retail/", path)
	assert.Equal(t, "transactions.txt", name)

	path, name = dd.GetResultsFilePathAndName("retail", "r1")
	assert.Equal(t, "/tmp/basket/datasets/retail/runs/r1/", path)
	assert.Equal(t, "frequent_item_sets.txt", name)
}

func TestCreateAndGet(t *testing.T) {
	dd := New(t.TempDir())
	path, name := dd.GetResultsFilePathAndName("retail", "r1")
	assert.Nil(t, dd.Create(path, name, strings.NewReader("2, 4, 2, 3\n")))

	rc, err := dd.Get(path, name)
	assert.Nil(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	assert.Nil(t, err)
	assert.Equal(t, "2, 4, 2, 3\n", string(b))

	size, err := dd.GetObjectSize(path, name)
	assert.Nil(t, err)
	assert.Equal(t, int64(11), size)

	assert.Equal(t, []string{"r1"}, dd.ListRuns("retail"))
	assert.Empty(t, dd.ListRuns("other"))

	_, err = dd.Get(path, "missing.txt")
	assert.Error(t, err)
}
