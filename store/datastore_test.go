package store

import (
	"testing"
	"time"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

const testUUID = "000"

func tsAt(seconds int) time.Time {
	return time.Date(2014, 8, 11, 8, 32, seconds, 0, time.UTC)
}

func TestIngestSequenceMonotonic(t *testing.T) {
	ds := NewDataStore(4, 0)
	var last uint64
	for i := 0; i < 10; i++ {
		seq, applied := ds.Ingest(testUUID, Incoming{
			DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(i), Scalar: "AVAILABLE",
		})
		if i == 0 {
			if !applied || seq != 1 {
				t.Fatalf("first ingest: seq=%d applied=%v", seq, applied)
			}
			last = seq
		} else if applied {
			t.Fatalf("ingest %d: identical scalar should be suppressed", i)
		}
	}

	// Force genuinely new values so sequence keeps advancing and the ring
	// wraps past its capacity of 4.
	for i := 1; i <= 8; i++ {
		seq, applied := ds.Ingest(testUUID, Incoming{
			DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(i),
			Scalar: map[bool]string{true: "AVAILABLE", false: "UNAVAILABLE"}[i%2 == 0],
		})
		if !applied {
			t.Fatalf("ingest %d: distinct value should apply", i)
		}
		if seq <= last {
			t.Fatalf("sequence did not advance: last=%d seq=%d", last, seq)
		}
		last = seq
	}

	first, lastSeq, next := ds.Bounds()
	if next != last+1 {
		t.Errorf("nextSequence = %d, want %d", next, last+1)
	}
	if lastSeq-first+1 > 4 {
		t.Errorf("lastSequence-firstSequence+1 = %d, want <= buffer size 4", lastSeq-first+1)
	}
}

func TestIngestDuplicateSuppression(t *testing.T) {
	ds := NewDataStore(10, 0)
	seq1, applied1 := ds.Ingest(testUUID, Incoming{
		DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE",
	})
	seq2, applied2 := ds.Ingest(testUUID, Incoming{
		DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(1), Scalar: "AVAILABLE",
	})
	if !applied1 || applied2 {
		t.Fatalf("expected exactly one applied write, got applied1=%v applied2=%v", applied1, applied2)
	}
	if seq2 != 0 {
		t.Errorf("suppressed write returned seq=%d, want 0", seq2)
	}
	_, _, next := ds.Bounds()
	if next != seq1+1 {
		t.Errorf("nextSequence = %d, want %d (only one entry buffered)", next, seq1+1)
	}
}

func TestConditionPerCodeClear(t *testing.T) {
	ds := NewDataStore(10, 0)
	ds.Ingest(testUUID, Incoming{
		DataItemID: "htemp", Category: cmn.Condition, Timestamp: tsAt(0),
		Condition: ConditionValue{Level: cmn.Warning, NativeCode: "HTEMP", NativeSeverity: "1", Qualifier: "HIGH", Message: "Oil Temperature High"},
	})
	ds.Ingest(testUUID, Incoming{
		DataItemID: "htemp", Category: cmn.Condition, Timestamp: tsAt(1),
		Condition: ConditionValue{Level: cmn.Fault, NativeCode: "OVERLOAD", Message: "Overload"},
	})
	rs, err := ds.CurrentAt(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(rs.Conditions(testUUID, "htemp")); got != 2 {
		t.Fatalf("active conditions = %d, want 2", got)
	}

	// Clear only HTEMP by nativeCode; OVERLOAD must survive.
	ds.Ingest(testUUID, Incoming{
		DataItemID: "htemp", Category: cmn.Condition, Timestamp: tsAt(2),
		Condition: ConditionValue{Level: cmn.Normal, NativeCode: "HTEMP"},
	})
	rs, _ = ds.CurrentAt(nil)
	active := rs.Conditions(testUUID, "htemp")
	if len(active) != 1 || active[0].Condition.NativeCode != "OVERLOAD" {
		t.Fatalf("got %+v, want only OVERLOAD remaining", active)
	}
}

func TestConditionGlobalClear(t *testing.T) {
	ds := NewDataStore(10, 0)
	ds.Ingest(testUUID, Incoming{
		DataItemID: "Cloadc", Category: cmn.Condition, Timestamp: tsAt(0),
		Condition: ConditionValue{Level: cmn.Warning, NativeCode: "HTEMP"},
	})
	ds.Ingest(testUUID, Incoming{
		DataItemID: "Cloadc", Category: cmn.Condition, Timestamp: tsAt(1),
		Condition: ConditionValue{Level: cmn.Fault, NativeCode: "OVERLOAD"},
	})

	rs, _ := ds.CurrentAt(nil)
	if len(rs.Conditions(testUUID, "Cloadc")) != 2 {
		t.Fatalf("expected 2 active conditions before global clear")
	}

	ds.Ingest(testUUID, Incoming{
		DataItemID: "Cloadc", Category: cmn.Condition, Timestamp: tsAt(2),
		Condition: ConditionValue{Level: cmn.Normal},
	})
	rs, _ = ds.CurrentAt(nil)
	active := rs.Conditions(testUUID, "Cloadc")
	if active == nil {
		t.Fatal("Conditions() = nil after a global clear, want an empty non-nil slice (data item has been observed)")
	}
	if len(active) != 0 {
		t.Fatalf("got %+v, want no active conditions after a global clear", active)
	}
}

func TestConditionsNilWhenNeverObserved(t *testing.T) {
	ds := NewDataStore(10, 0)
	ds.Ingest(testUUID, Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE"})
	rs, _ := ds.CurrentAt(nil)
	if got := rs.Conditions(testUUID, "nonexistent"); got != nil {
		t.Errorf("Conditions() for an unobserved data item = %+v, want nil", got)
	}
}

func TestCurrentRoundTripAfterIngest(t *testing.T) {
	ds := NewDataStore(10, 0)
	ds.Ingest(testUUID, Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE"})
	rs, err := ds.CurrentAt(nil)
	if err != nil {
		t.Fatal(err)
	}
	obs, ok := rs.Current(testUUID, "avail")
	if !ok || obs.Scalar != "AVAILABLE" {
		t.Fatalf("got obs=%+v ok=%v", obs, ok)
	}
}

func TestSampleFromBeforeFirstSequence(t *testing.T) {
	ds := NewDataStore(4, 0)
	for i := 0; i < 4; i++ {
		ds.Ingest(testUUID, Incoming{
			DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(i),
			Scalar: map[bool]string{true: "AVAILABLE", false: "UNAVAILABLE"}[i%2 == 0],
		})
	}
	first, _, _ := ds.Bounds()
	_, err := ds.Sample(first-1, 1)
	if err == nil {
		t.Fatal("expected an OUT_OF_RANGE error for from < firstSequence")
	}
	qerr, ok := err.(*cmn.QueryError)
	if !ok || qerr.Code != cmn.ErrOutOfRange {
		t.Fatalf("got %+v, want an OUT_OF_RANGE *cmn.QueryError", err)
	}
}

func TestSampleCountZero(t *testing.T) {
	ds := NewDataStore(4, 0)
	ds.Ingest(testUUID, Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE"})
	first, _, _ := ds.Bounds()
	_, err := ds.Sample(first, 0)
	if err == nil {
		t.Fatal("expected an error for count=0")
	}
	qerr, ok := err.(*cmn.QueryError)
	if !ok || qerr.Code != cmn.ErrOutOfRange {
		t.Fatalf("got %+v, want OUT_OF_RANGE", err)
	}
	if qerr.Msg != "count must be greater than or equal to 1" {
		t.Errorf("Msg = %q, want %q", qerr.Msg, "count must be greater than or equal to 1")
	}
}

func TestSampleCountExceedsBufferCapacity(t *testing.T) {
	ds := NewDataStore(4, 0)
	ds.Ingest(testUUID, Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE"})
	first, _, _ := ds.Bounds()
	_, err := ds.Sample(first, 5)
	if err == nil {
		t.Fatal("expected an error for count > buffer capacity")
	}
	qerr, ok := err.(*cmn.QueryError)
	if !ok || qerr.Code != cmn.ErrOutOfRange {
		t.Fatalf("got %+v, want OUT_OF_RANGE", err)
	}
}

func TestSampleClampsToLastSequence(t *testing.T) {
	ds := NewDataStore(10, 0)
	for i := 0; i < 3; i++ {
		ds.Ingest(testUUID, Incoming{
			DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(i),
			Scalar: map[bool]string{true: "AVAILABLE", false: "UNAVAILABLE"}[i%2 == 0],
		})
	}
	first, lastSeq, _ := ds.Bounds()
	res, err := ds.Sample(first, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.NextSequence != lastSeq+1 {
		t.Errorf("NextSequence = %d, want %d", res.NextSequence, lastSeq+1)
	}
	if uint64(len(res.Observations)) != lastSeq-first+1 {
		t.Errorf("len(Observations) = %d, want %d", len(res.Observations), lastSeq-first+1)
	}
}

func TestCurrentAtOutOfRange(t *testing.T) {
	ds := NewDataStore(4, 10)
	ds.Ingest(testUUID, Incoming{DataItemID: "avail", Category: cmn.Event, Timestamp: tsAt(0), Scalar: "AVAILABLE"})
	_, lastSeq, _ := ds.Bounds()
	bad := lastSeq + 1
	_, err := ds.CurrentAt(&bad)
	if err == nil {
		t.Fatal("expected an OUT_OF_RANGE error for at beyond lastSequence")
	}
}
