package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestLoadDirectoryEmpty(t *testing.T) {
	for _, raw := range []any{nil, []byte(nil), []byte("  "), ""} {
		d, dropped := LoadDirectory(raw, testPlatforms())
		if len(dropped) != 0 {
			t.Errorf("LoadDirectory(%#v) dropped %v", raw, dropped)
		}
		if d.Commit().Len() != 0 {
			t.Errorf("LoadDirectory(%#v) not empty", raw)
		}
	}
}

func TestLoadDirectoryNullSection(t *testing.T) {
	raw := []byte(`{"social":{"instagram":"https://instagram.com/jsmith"},"payment":null}`)

	d, dropped := LoadDirectory(raw, testPlatforms())

	if len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
	snap := d.Commit()
	if len(snap[CategoryPayment]) != 0 {
		t.Errorf("payment = %v, want empty", snap[CategoryPayment])
	}
	want := []Link{{Platform: "instagram", Value: "https://instagram.com/jsmith", Link: "https://instagram.com/jsmith"}}
	if !reflect.DeepEqual(snap[CategorySocial], want) {
		t.Errorf("social = %v, want %v", snap[CategorySocial], want)
	}
}

func TestLoadDirectoryKeepsJSONOrder(t *testing.T) {
	raw := []byte(`{"social":{"tiktok":"a","instagram":"b","facebook":"c"}}`)

	d, _ := LoadDirectory(raw, testPlatforms())

	want := []string{"tiktok", "instagram", "facebook"}
	if got := d.Keys(CategorySocial); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestLoadDirectoryDropsBadLeaves(t *testing.T) {
	raw := []byte(`{"social":{"instagram":null,"facebook":{"nested":true},"tiktok":"","x":42},"retro":{"a":"b"}}`)

	d, dropped := LoadDirectory(raw, testPlatforms())

	if len(dropped) != 4 {
		t.Fatalf("dropped %d leaves, want 4: %v", len(dropped), dropped)
	}
	for _, err := range dropped {
		if !errors.Is(err, ErrLoadShape) {
			t.Errorf("dropped error %v does not match ErrLoadShape", err)
		}
	}
	e, ok := d.Lookup(CategorySocial, "x")
	if !ok || e.Link != "42" {
		t.Errorf("numeric leaf = %+v, want stringified", e)
	}
}

func TestLoadDirectoryShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{
			name: "plain map",
			raw:  map[string]any{"contact": map[string]any{"whatsapp": "https://wa.me/1202"}},
		},
		{
			name: "tuple list",
			raw:  []any{[]any{"contact", []any{[]any{"whatsapp", "https://wa.me/1202"}}}},
		},
		{
			name: "ordered pairs",
			raw:  []Pair{{Key: "contact", Value: []Pair{{Key: "whatsapp", Value: "https://wa.me/1202"}}}},
		},
		{
			name: "committed snapshot",
			raw:  Snapshot{CategoryContact: {{Platform: "whatsapp", Value: "https://wa.me/1202", Link: "https://wa.me/1202"}}},
		},
		{
			name: "key value objects",
			raw:  []byte(`{"contact":[{"key":"whatsapp","value":"https://wa.me/1202"}]}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, dropped := LoadDirectory(tt.raw, testPlatforms())
			if len(dropped) != 0 {
				t.Fatalf("dropped = %v", dropped)
			}
			e, ok := d.Lookup(CategoryContact, "whatsapp")
			if !ok || e.Link != "https://wa.me/1202" {
				t.Errorf("whatsapp = %+v", e)
			}
		})
	}
}

func TestLoadDirectoryRoundTrip(t *testing.T) {
	d := socialDirectory(t)
	mustAdd(t, d, "", "whatsapp", "+1 (202) 555-0143")
	snap := d.Commit()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	loaded, dropped := LoadDirectory(data, testPlatforms())
	if len(dropped) != 0 {
		t.Fatalf("dropped = %v", dropped)
	}
	if got := loaded.Commit(); !reflect.DeepEqual(got, snap) {
		t.Errorf("round trip differs:\n got %v\nwant %v", got, snap)
	}
}

func TestLoadDirectoryUnrecognizedTop(t *testing.T) {
	d, dropped := LoadDirectory([]byte(`"hello"`), testPlatforms())
	if len(dropped) != 1 || !errors.Is(dropped[0], ErrLoadShape) {
		t.Errorf("dropped = %v, want one shape error", dropped)
	}
	if d == nil || d.Commit().Len() != 0 {
		t.Errorf("want empty directory")
	}

	_, dropped = LoadDirectory([]byte(`{broken`), testPlatforms())
	if len(dropped) != 1 || !errors.Is(dropped[0], ErrLoadShape) {
		t.Errorf("malformed json dropped = %v", dropped)
	}
}
