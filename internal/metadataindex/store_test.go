package metadataindex

import (
	"context"
	"testing"
	"time"

	"github.com/contentvault/resourcestore/internal/restype"
	"github.com/contentvault/resourcestore/internal/scorer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeta(parent restype.ResourceId, name string) *restype.ResourceMetadata {
	now := time.Now()
	return &restype.ResourceMetadata{
		ID:       restype.NewResourceId(),
		Parent:   parent,
		Kind:     restype.KindLeaf,
		Name:     name,
		Tags:     []string{"inbox"},
		Variants: []restype.Variant{{Name: "default", MimeType: "text/plain", Size: 5}},
		Created:  now,
		Modified: now,
	}
}

func insert(t *testing.T, s *Store, meta *restype.ResourceMetadata) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.InsertResource(context.Background(), tx, meta)
	})
	if err != nil {
		t.Fatalf("InsertResource: %v", err)
	}
}

func TestInsertAndGetMetadata(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(restype.Root, "note.txt")
	insert(t, s, meta)

	got, err := s.GetMetadata(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if got.Name != meta.Name || got.Parent != meta.Parent {
		t.Fatalf("got %+v, want name/parent to match %+v", got, meta)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "inbox" {
		t.Fatalf("tags = %v", got.Tags)
	}
	if len(got.Variants) != 1 || got.Variants[0].Name != "default" {
		t.Fatalf("variants = %v", got.Variants)
	}
}

func TestInsertDuplicateIDIsAlreadyExists(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(restype.Root, "note.txt")
	insert(t, s, meta)

	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.InsertResource(context.Background(), tx, meta)
	})
	if !restype.IsAlreadyExists(err) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

func TestSiblingNameCollisionFails(t *testing.T) {
	s := openTestStore(t)
	a := sampleMeta(restype.Root, "dup.txt")
	insert(t, s, a)

	b := sampleMeta(restype.Root, "dup.txt")
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.InsertResource(context.Background(), tx, b)
	})
	if err == nil {
		t.Fatal("expected a uniqueness failure for duplicate (parent, name)")
	}
}

func TestGetMetadataMissingIsNoSuchResource(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetMetadata(context.Background(), restype.NewResourceId())
	if !restype.IsNoSuchResource(err) {
		t.Fatalf("expected NoSuchResource, got %v", err)
	}
}

func TestChildrenExcludesSelfParentedRoot(t *testing.T) {
	s := openTestStore(t)
	root := sampleMeta(restype.Root, "root")
	root.ID = restype.Root
	root.Kind = restype.KindContainer
	insert(t, s, root)

	child := sampleMeta(restype.Root, "child.txt")
	insert(t, s, child)

	ids, err := s.Children(context.Background(), restype.Root)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(ids) != 1 || ids[0] != child.ID {
		t.Fatalf("children = %v, want [%v]", ids, child.ID)
	}
}

func TestAddTagAndRemoveTag(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(restype.Root, "a.txt")
	insert(t, s, meta)

	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.AddTag(context.Background(), tx, meta.ID, "starred")
	})
	if err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	ids, err := s.ByTag(context.Background(), "starred")
	if err != nil || len(ids) != 1 || ids[0] != meta.ID {
		t.Fatalf("ByTag after add = %v, %v", ids, err)
	}

	err = s.WithTx(context.Background(), func(tx *Tx) error {
		return s.RemoveTag(context.Background(), tx, meta.ID, "starred")
	})
	if err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	ids, err = s.ByTag(context.Background(), "starred")
	if err != nil || len(ids) != 0 {
		t.Fatalf("ByTag after remove = %v, %v", ids, err)
	}
}

func TestDeleteResourcesCascadesTagsVariantsAndText(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(restype.Root, "gone.txt")
	insert(t, s, meta)
	if err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.AddText(context.Background(), tx, meta.ID, "hello world")
	}); err != nil {
		t.Fatalf("AddText: %v", err)
	}

	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.DeleteResources(context.Background(), tx, []restype.ResourceId{meta.ID})
	})
	if err != nil {
		t.Fatalf("DeleteResources: %v", err)
	}

	if _, err := s.GetMetadata(context.Background(), meta.ID); !restype.IsNoSuchResource(err) {
		t.Fatalf("expected resource gone, got %v", err)
	}
	ids, err := s.ByText(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("ByText: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected fts rows cascaded away, got %v", ids)
	}
}

func TestByTextMatchesAllTokens(t *testing.T) {
	s := openTestStore(t)
	a := sampleMeta(restype.Root, "a.txt")
	b := sampleMeta(restype.Root, "b.txt")
	insert(t, s, a)
	insert(t, s, b)

	if err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.AddText(context.Background(), tx, a.ID, "quarterly report draft")
	}); err != nil {
		t.Fatalf("AddText a: %v", err)
	}
	if err := s.WithTx(context.Background(), func(tx *Tx) error {
		return s.AddText(context.Background(), tx, b.ID, "grocery list")
	}); err != nil {
		t.Fatalf("AddText b: %v", err)
	}

	ids, err := s.ByText(context.Background(), "quarterly draft", "")
	if err != nil {
		t.Fatalf("ByText: %v", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("ByText = %v, want [%v]", ids, a.ID)
	}
}

func TestTopByFrecencyOrdersByScore(t *testing.T) {
	s := openTestStore(t)
	low := sampleMeta(restype.Root, "low.txt")
	high := sampleMeta(restype.Root, "high.txt")
	high.Scorer = scorer.Scorer{}
	for i := 0; i < 10; i++ {
		high.Scorer.Add(scorer.VisitEntry{Timestamp: time.Now(), Priority: scorer.PriorityVeryHigh})
	}
	insert(t, s, low)
	insert(t, s, high)

	ids, err := s.TopByFrecency(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopByFrecency: %v", err)
	}
	if len(ids) != 2 || ids[0] != high.ID {
		t.Fatalf("top = %v, want %v first", ids, high.ID)
	}
}

func TestResourceCountAndClearAll(t *testing.T) {
	s := openTestStore(t)
	insert(t, s, sampleMeta(restype.Root, "a.txt"))
	insert(t, s, sampleMeta(restype.Root, "b.txt"))

	n, err := s.ResourceCount(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("ResourceCount = %d, %v, want 2", n, err)
	}

	err = s.WithTx(context.Background(), func(tx *Tx) error {
		return s.ClearAll(context.Background(), tx)
	})
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	n, err = s.ResourceCount(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("ResourceCount after clear = %d, %v, want 0", n, err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(restype.Root, "a.txt")

	wantErr := restype.Custom("blob write failed")
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		if err := s.InsertResource(context.Background(), tx, meta); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("WithTx returned %v, want %v", err, wantErr)
	}

	if _, err := s.GetMetadata(context.Background(), meta.ID); !restype.IsNoSuchResource(err) {
		t.Fatalf("expected insert to be rolled back, got %v", err)
	}
}
