package restype

import "testing"

func TestChildListRoundTrip(t *testing.T) {
	ids := []ResourceId{NewResourceId(), NewResourceId(), NewResourceId()}
	encoded := EncodeChildList(ids)
	decoded, err := DecodeChildList(encoded)
	if err != nil {
		t.Fatalf("DecodeChildList: %v", err)
	}
	if len(decoded) != len(ids) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(ids))
	}
	for i := range ids {
		if decoded[i] != ids[i] {
			t.Errorf("id %d = %v, want %v", i, decoded[i], ids[i])
		}
	}
}

func TestChildListEmpty(t *testing.T) {
	encoded := EncodeChildList(nil)
	decoded, err := DecodeChildList(encoded)
	if err != nil {
		t.Fatalf("DecodeChildList: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("len(decoded) = %d, want 0", len(decoded))
	}
}

func TestChildListTruncatedIsError(t *testing.T) {
	ids := []ResourceId{NewResourceId()}
	encoded := EncodeChildList(ids)
	if _, err := DecodeChildList(encoded[:len(encoded)-1]); err == nil {
		t.Error("truncated child list should fail to decode")
	}
}
