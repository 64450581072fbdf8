package memory

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/duet/internal/domain"
)

func TestTurn_Validate(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want error
	}{
		{"user only", Turn{ConversationID: "c1", UserMessage: &Message{Text: "hi"}}, nil},
		{"bot only", Turn{ConversationID: "c1", BotMessage: &Message{Text: "hello"}}, nil},
		{"no messages", Turn{ConversationID: "c1", Documents: []string{"doc"}}, domain.ErrValidation},
		{"empty texts", Turn{ConversationID: "c1", UserMessage: &Message{}, BotMessage: &Message{}}, domain.ErrValidation},
		{"no conversation", Turn{UserMessage: &Message{Text: "hi"}}, domain.ErrMissingIdentifier},
		{"blank conversation", Turn{ConversationID: "  ", UserMessage: &Message{Text: "hi"}}, domain.ErrMissingIdentifier},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.turn.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTurn_UnitsSkipsEmpty(t *testing.T) {
	turn := Turn{
		UserMessage: &Message{Text: "question"},
		BotMessage:  &Message{Text: ""},
		Documents:   []string{"doc one", ""},
		Links:       []string{"", "page"},
	}

	got := turn.Units()
	want := []string{"question", "doc one", "page"}
	if len(got) != len(want) {
		t.Fatalf("expected %d units, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unit %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNewMetadata_StampsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, loc)
	turn := Turn{ConversationID: "c1", UserMessage: &Message{Text: "hi"}}

	md := NewMetadata(&turn, now)
	if md.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %q", md.Timestamp)
	}
	if md.ConversationID != "c1" || md.UserMessage.Text != "hi" {
		t.Errorf("unexpected metadata %+v", md)
	}
}

func TestMetadata_Time(t *testing.T) {
	tests := []struct {
		stamp string
		ok    bool
	}{
		{"2026-03-01T12:00:00Z", true},
		{"2026-03-01T12:00:00.123456Z", true},
		{"2026-03-01T12:00:00.123456", true},
		{"2026-03-01T12:00:00", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tc := range tests {
		md := Metadata{Timestamp: tc.stamp}
		if _, ok := md.Time(); ok != tc.ok {
			t.Errorf("Time(%q) ok = %v, want %v", tc.stamp, ok, tc.ok)
		}
	}
}

func TestMetadata_ZeroValueEncodesEmptyArrays(t *testing.T) {
	data, err := json.Marshal(Metadata{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"documents":[],"links":[]}` {
		t.Errorf("unexpected encoding %s", data)
	}
}

func TestNewMetadata_NilSourcesBecomeEmpty(t *testing.T) {
	md := NewMetadata(&Turn{ConversationID: "c1", UserMessage: &Message{Text: "hi"}}, time.Now())
	if md.Documents == nil || md.Links == nil {
		t.Errorf("expected empty slices, got %+v", md)
	}
}

func TestMessage_KeepsUnknownFields(t *testing.T) {
	in := `{"text":"hi","sender":"user","id":7,"timestamp":"2026-03-01T12:00:00Z","meta":{"lang":"en"}}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Text != "hi" || m.Sender != "user" {
		t.Errorf("unexpected message %+v", m)
	}

	out, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertSameJSON(t, in, string(out))
}

func TestMessage_NonStringSenderKeptVerbatim(t *testing.T) {
	in := `{"text":"hi","sender":{"id":3}}`
	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Sender != "" {
		t.Errorf("sender = %q, want empty", m.Sender)
	}
	out, _ := json.Marshal(m)
	assertSameJSON(t, in, string(out))
}

func TestMessage_BuiltInCode(t *testing.T) {
	out, err := json.Marshal(Message{Text: "hello"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"text":"hello"}` {
		t.Errorf("unexpected encoding %s", out)
	}
}

func TestMessage_Invalid(t *testing.T) {
	for _, in := range []string{`"hi"`, `[1]`, `{"text":42}`, `{"text":{"a":1}}`} {
		var m Message
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Unmarshal(%s): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	in := `{"userMessage":{"text":"hi","id":7},"botMessage":{"text":"hello","model":"llama3"},` +
		`"documents":[],"links":["https://example.com"],"timestamp":"2026-03-01T12:00:00Z","conversationId":"c1"}`

	var md Metadata
	if err := json.Unmarshal([]byte(in), &md); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertSameJSON(t, in, string(out))
}

func assertSameJSON(t *testing.T, want, got string) {
	t.Helper()
	var w, g any
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("want: %v", err)
	}
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("got: %v", err)
	}
	if !reflect.DeepEqual(w, g) {
		t.Errorf("JSON mismatch\n want %s\n  got %s", want, got)
	}
}
