package records

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbcommon "github.com/tranvictor/carebook/common"
)

func sampleRecords() []cbcommon.Record {
	return []cbcommon.Record{
		{RecordID: 1, PatientName: "Alice", Diagnosis: "Flu", Treatment: "Rest", Timestamp: 1700000000},
		{RecordID: 2, PatientName: "Alice", Diagnosis: "Cold", Treatment: "Tea", Timestamp: 1700000100},
	}
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := NewStore()
	assert.Equal(t, int64(-1), s.PatientID())
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Records())
}

func TestReplaceAndClear(t *testing.T) {
	s := NewStore()
	s.Replace(7, sampleRecords())
	assert.Equal(t, int64(7), s.PatientID())
	assert.True(t, s.Loaded())
	assert.Equal(t, sampleRecords(), s.Records())

	s.Replace(8, nil)
	assert.Equal(t, int64(8), s.PatientID())
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Records())

	s.Clear()
	assert.Equal(t, int64(-1), s.PatientID())
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Records())
}

func TestStoreIsolatesCallers(t *testing.T) {
	s := NewStore()
	input := sampleRecords()
	s.Replace(7, input)
	input[0].Diagnosis = "changed"

	out := s.Records()
	assert.Equal(t, "Flu", out[0].Diagnosis)
	out[1].Treatment = "changed"
	assert.Equal(t, "Tea", s.Records()[1].Treatment)
}

func TestSubscribeChanges(t *testing.T) {
	s := NewStore()
	ch := make(chan Change, 4)
	sub := s.SubscribeChanges(ch)
	defer sub.Unsubscribe()

	s.Replace(7, sampleRecords())
	s.Clear()

	for _, want := range []Change{
		{PatientID: 7, Records: sampleRecords()},
		{PatientID: -1, Cleared: true},
	} {
		select {
		case got := <-ch:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			require.FailNow(t, "change not published")
		}
	}
}

func TestConcurrentReplacePublishesMatchingRecords(t *testing.T) {
	s := NewStore()
	ch := make(chan Change, 512)
	sub := s.SubscribeChanges(ch)
	defer sub.Unsubscribe()

	recordsFor := func(id int64) []cbcommon.Record {
		return []cbcommon.Record{{RecordID: uint64(id), PatientName: "p"}}
	}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		for _, id := range []int64{1, 2} {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				s.Replace(id, recordsFor(id))
			}(id)
		}
	}
	wg.Wait()

	for i := 0; i < 200; i++ {
		got := <-ch
		require.Len(t, got.Records, 1)
		assert.Equal(t, uint64(got.PatientID), got.Records[0].RecordID)
	}
}
