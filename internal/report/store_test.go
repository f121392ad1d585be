package report

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")

	s, err := OpenStore(path, "run-a")
	require.NoError(t, err)
	require.Equal(t, "run-a", s.RunID())

	recs := []Record{
		{Frame: 2, Speed: 56, Time: 2.0 / 30},
		{Frame: 1, Speed: 42, Time: 1.0 / 30},
	}
	for _, r := range recs {
		require.NoError(t, s.Add(r))
	}
	require.NoError(t, s.Close())

	// A second run in the same database.
	s, err = OpenStore(path, "run-b")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Add(Record{Frame: 1, Speed: 7, Time: 1}))

	got, err := s.Records("run-a")
	require.NoError(t, err)
	want := []Record{recs[1], recs[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Equal(t, []string{"run-a", "run-b"}, runs)
}

func TestStore_DuplicateFrame(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "readings.db"), "run")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add(Record{Frame: 1, Speed: 1}))
	require.Error(t, s.Add(Record{Frame: 1, Speed: 2}))
}

func TestStore_RequiresRunID(t *testing.T) {
	_, err := OpenStore(filepath.Join(t.TempDir(), "readings.db"), "")
	require.Error(t, err)
}

func TestStore_UnknownRun(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "readings.db"), "run")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Records("missing")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStore_AddAllIsAtomic(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "readings.db"), "run")
	require.NoError(t, err)
	defer s.Close()

	// The repeated frame fails the batch after the first row was inserted.
	err = s.AddAll([]Record{
		{Frame: 1, Speed: 10, Time: 1},
		{Frame: 2, Speed: 20, Time: 2},
		{Frame: 2, Speed: 30, Time: 3},
	})
	require.Error(t, err)

	got, err := s.Records("run")
	require.NoError(t, err)
	require.Empty(t, got)

	recs := []Record{{Frame: 1, Speed: 10, Time: 1}, {Frame: 2, Speed: 20, Time: 2}}
	require.NoError(t, s.AddAll(recs))
	got, err = s.Records("run")
	require.NoError(t, err)
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenReadings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")

	_, err := OpenReadings(path)
	require.Error(t, err, "a missing database must not be created")

	w, err := OpenStore(path, "run")
	require.NoError(t, err)
	require.NoError(t, w.Add(Record{Frame: 1, Speed: 5, Time: 1}))
	require.NoError(t, w.Close())

	r, err := OpenReadings(path)
	require.NoError(t, err)
	defer r.Close()

	runs, err := r.Runs()
	require.NoError(t, err)
	require.Equal(t, []string{"run"}, runs)
	require.Error(t, r.Add(Record{Frame: 2}))
	require.Error(t, r.AddAll([]Record{{Frame: 2}}))
}
