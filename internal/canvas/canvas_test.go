package canvas

import (
	"errors"
	"testing"

	"canvasd/internal/domain"
)

func TestAddRejectsUnknownKind(t *testing.T) {
	c := New()
	if _, err := c.Add("blob", nil); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestValidationErrorsWrapDomainSentinel(t *testing.T) {
	c := New()

	_, err := c.Add("blob", nil)
	if !errors.Is(err, domain.ErrInvalidObject) {
		t.Fatalf("unknown kind must wrap ErrInvalidObject, got %v", err)
	}

	_, err = c.Add(KindRect, map[string]any{"draw": func() {}})
	if !errors.Is(err, domain.ErrInvalidObject) {
		t.Fatalf("unserializable properties must wrap ErrInvalidObject, got %v", err)
	}

	obj, err := c.Add(KindRect, nil)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err = c.Modify(obj.ID, map[string]any{"draw": func() {}})
	if !errors.Is(err, domain.ErrInvalidObject) {
		t.Fatalf("modify validation must wrap ErrInvalidObject, got %v", err)
	}
}

func TestMutationsFireSignal(t *testing.T) {
	c := New()
	fired := 0
	cancel := c.Subscribe(func() { fired++ })

	obj, err := c.Add(KindRect, map[string]any{"left": 10.0, "top": 20.0})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := c.Modify(obj.ID, map[string]any{"skewX": 15.0}); err != nil {
		t.Fatalf("modify failed: %v", err)
	}
	if err := c.Remove(obj.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if fired != 3 {
		t.Fatalf("expected 3 mutation signals, got %d", fired)
	}

	cancel()
	cancel() // second cancel is a no-op
	if _, err := c.Add(KindCircle, nil); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if fired != 3 {
		t.Fatalf("cancelled subscriber still notified: %d", fired)
	}
}

func TestModifyMergesProperties(t *testing.T) {
	c := New()
	obj, err := c.Add(KindText, map[string]any{"text": "hello", "left": 1.0})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	updated, err := c.Modify(obj.ID, map[string]any{"left": 5.0})
	if err != nil {
		t.Fatalf("modify failed: %v", err)
	}
	if updated.Properties["text"] != "hello" {
		t.Fatalf("untouched property lost: %#v", updated.Properties)
	}
	if updated.Properties["left"] != 5.0 {
		t.Fatalf("property not updated: %#v", updated.Properties)
	}
}

func TestModifyMissingObject(t *testing.T) {
	c := New()
	if _, err := c.Modify("nope", map[string]any{"left": 1.0}); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := c.Remove("nope"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestSerializeIsCanonical(t *testing.T) {
	c := New()
	if _, err := c.Add(KindRect, map[string]any{"left": 1.0, "top": 2.0, "fill": "#fff"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	first := c.Serialize()
	second := c.Serialize()
	if !first.Equal(second) {
		t.Fatal("two snapshots of the same state must be byte-equal")
	}
}

func TestDeserializeRoundtrip(t *testing.T) {
	c := New()
	c.Add(KindRect, map[string]any{"left": 1.0})
	c.Add(KindCircle, map[string]any{"radius": 4.0})
	blob := c.Serialize()

	restored := New()
	if err := restored.Deserialize(blob); err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}

	objs := restored.Objects()
	if len(objs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objs))
	}
	if objs[0].Kind != KindRect || objs[1].Kind != KindCircle {
		t.Fatalf("object order lost: %#v", objs)
	}
	if !restored.Serialize().Equal(blob) {
		t.Fatal("roundtrip changed the snapshot bytes")
	}
}

func TestDeserializeFiresNoSignal(t *testing.T) {
	c := New()
	c.Add(KindRect, nil)
	blob := c.Serialize()

	restored := New()
	fired := 0
	restored.Subscribe(func() { fired++ })

	if err := restored.Deserialize(blob); err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if fired != 0 {
		t.Fatalf("programmatic restore must not fire the mutation signal, got %d", fired)
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	c := New()
	if err := c.Deserialize([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
	if err := c.Deserialize([]byte(`{"version":99,"objects":[]}`)); err == nil {
		t.Fatal("expected error for unsupported snapshot version")
	}
}
