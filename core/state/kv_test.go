package state

import (
	"testing"

	"gitbounty/storage"
)

type kvRecord struct {
	Count uint64
	Label string
}

func TestKVPutGetDelete(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	key := []byte("quotas/escrow/1/aa")

	var out kvRecord
	ok, err := mgr.KVGet(key, &out)
	if err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := mgr.KVPut(key, kvRecord{Count: 3, Label: "x"}); err != nil {
		t.Fatalf("KVPut: %v", err)
	}
	ok, err = mgr.KVGet(key, &out)
	if err != nil || !ok {
		t.Fatalf("expected stored key, ok=%v err=%v", ok, err)
	}
	if out.Count != 3 || out.Label != "x" {
		t.Fatalf("unexpected record: %+v", out)
	}

	if err := mgr.KVDelete(key); err != nil {
		t.Fatalf("KVDelete: %v", err)
	}
	ok, err = mgr.KVGet(key, nil)
	if err != nil || ok {
		t.Fatalf("expected deleted key, ok=%v err=%v", ok, err)
	}

	if err := mgr.KVPut(nil, 1); err == nil {
		t.Fatalf("expected empty key error")
	}
}
