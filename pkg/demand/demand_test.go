package demand

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/model"
)

func TestRead(t *testing.T) {
	in := "p1,10,12,e0,100.5,e3,20\n" +
		"p2, 15, 15, e1, 0, e2, 999.25\n"
	recs, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, Record{
		ID:          "p1",
		CallTime:    10,
		RequestTime: 12,
		Origin:      model.Location{Link: "e0", Offset: 100.5},
		Destination: model.Location{Link: "e3", Offset: 20},
	}, recs[0])
	assert.Equal(t, 999.25, recs[1].Destination.Offset)

	r := recs[0].Request()
	assert.Equal(t, model.RequestUnallocated, r.State)
	require.NotNil(t, r.Origin.EarliestService)
	assert.Equal(t, int64(12), *r.Origin.EarliestService)
}

func TestRead_Malformed(t *testing.T) {
	cases := map[string]string{
		"short":     "p1,10,12,e0,100,e3\n",
		"long":      "p1,10,12,e0,100,e3,1,extra\n",
		"bad call":  "p1,x,12,e0,100,e3,1\n",
		"bad off":   "p1,10,12,e0,abc,e3,1\n",
		"empty id":  ",10,12,e0,1,e3,1\n",
		"duplicate": "p1,10,12,e0,1,e3,1\np1,11,12,e0,1,e3,1\n",
		"late line": "p1,10,12,e0,1,e3,1\np2,10,12\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			recs, err := Read(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.Nil(t, recs)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,1,1,e0,0,e1,0\n"), 0o644))
	recs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
