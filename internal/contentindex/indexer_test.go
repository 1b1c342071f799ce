package contentindex

import (
	"bytes"
	"context"
	"testing"

	"github.com/contentvault/resourcestore/internal/restype"
)

type fakeSink struct {
	texts []string
}

func (f *fakeSink) AddText(ctx context.Context, id restype.ResourceId, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func TestPlacesIndexerExtractsURLAndTitle(t *testing.T) {
	idx := NewPlacesIndexer()
	meta := &restype.ResourceMetadata{ID: restype.NewResourceId()}
	content := bytes.NewReader([]byte(`{"url":"https://example.com","title":"Example","icon":"x"}`))
	sink := &fakeSink{}

	err := idx.Index(context.Background(), meta, "application/x-places+json", content, sink)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(sink.texts) != 2 {
		t.Fatalf("got %d texts, want 2: %v", len(sink.texts), sink.texts)
	}

	pos, _ := content.Seek(0, 1)
	if pos != 0 {
		t.Errorf("stream not rewound, position = %d", pos)
	}
}

func TestContactsIndexerHandlesStringAndArrayFields(t *testing.T) {
	idx := NewContactsIndexer()
	meta := &restype.ResourceMetadata{ID: restype.NewResourceId()}
	content := bytes.NewReader([]byte(`{"name":"Ada","phone":["111","222"],"email":"ada@example.com"}`))
	sink := &fakeSink{}

	if err := idx.Index(context.Background(), meta, "application/x-contacts+json", content, sink); err != nil {
		t.Fatalf("Index: %v", err)
	}
	want := map[string]bool{"Ada": false, "111": false, "222": false, "ada@example.com": false}
	for _, text := range sink.texts {
		if _, ok := want[text]; ok {
			want[text] = true
		}
	}
	for text, found := range want {
		if !found {
			t.Errorf("missing expected text %q in %v", text, sink.texts)
		}
	}
}

func TestIndexerIsNoopForMismatchedFamily(t *testing.T) {
	idx := NewPlacesIndexer()
	meta := &restype.ResourceMetadata{ID: restype.NewResourceId()}
	content := bytes.NewReader([]byte(`{"name":"Ada"}`))
	sink := &fakeSink{}

	if err := idx.Index(context.Background(), meta, "application/x-contacts+json", content, sink); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(sink.texts) != 0 {
		t.Errorf("expected no-op for mismatched family, got %v", sink.texts)
	}
}

func TestIndexerMalformedJSONIsCodecError(t *testing.T) {
	idx := NewPlacesIndexer()
	meta := &restype.ResourceMetadata{ID: restype.NewResourceId()}
	content := bytes.NewReader([]byte(`not json`))
	sink := &fakeSink{}

	err := idx.Index(context.Background(), meta, "application/x-places+json", content, sink)
	if !restype.IsKind(err, restype.KindCodec) {
		t.Errorf("expected Codec error, got %v", err)
	}
}

func TestRegistryIndexAllRunsRegisteredIndexers(t *testing.T) {
	reg := NewRegistry(NewPlacesIndexer(), NewContactsIndexer())
	meta := &restype.ResourceMetadata{ID: restype.NewResourceId()}
	content := bytes.NewReader([]byte(`{"name":"Ada","phone":"123","email":"ada@example.com"}`))
	sink := &fakeSink{}

	if err := reg.IndexAll(context.Background(), meta, "application/x-contacts+json", content, sink); err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if len(sink.texts) != 3 {
		t.Fatalf("got %d texts, want 3: %v", len(sink.texts), sink.texts)
	}
}
