package storage

import (
	"errors"
	"testing"
	"time"

	"msgsync/models"
)

func TestCreateMessageAssignsIDTimeAndPalindrome(t *testing.T) {
	store := newTestStore(t)
	store.now = fixedClock(time.Date(2024, 6, 1, 14, 0, 0, 0, time.FixedZone("X", 2*3600)))

	msg, err := store.CreateMessage("A man, a plan, a canal: Panama")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if msg.MessageID == "" {
		t.Fatal("expected generated message ID")
	}
	if msg.Seq <= 0 {
		t.Fatalf("expected positive sequence, got %d", msg.Seq)
	}
	if !msg.IsPalindrome {
		t.Fatal("expected palindrome flag to be set")
	}
	if msg.CreatedAt != "2024-06-01T12:00:00Z" {
		t.Fatalf("unexpected created_at: %q", msg.CreatedAt)
	}
}

func TestCreateMessageRejectsBlankContent(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateMessage("   "); err == nil {
		t.Fatal("expected error for blank content")
	}
}

func TestListMessagesKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)

	texts := []string{"first", "level", "third"}
	for _, text := range texts {
		if _, err := store.CreateMessage(text); err != nil {
			t.Fatalf("CreateMessage(%q) failed: %v", text, err)
		}
	}

	got, err := store.ListMessages()
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("expected %d messages, got %d", len(texts), len(got))
	}
	for i, text := range texts {
		if got[i].Content != text {
			t.Fatalf("message %d: expected %q, got %q", i, text, got[i].Content)
		}
	}
	if got[0].IsPalindrome || !got[1].IsPalindrome {
		t.Fatalf("unexpected palindrome flags: %+v", got)
	}
}

func TestListMessagesEmptyIsNotNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListMessages()
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestGetAndDeleteMessage(t *testing.T) {
	store := newTestStore(t)

	created, err := store.CreateMessage("hello")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	got, err := store.GetMessage(created.MessageID)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if *got != *created {
		t.Fatalf("GetMessage mismatch: got %+v want %+v", got, created)
	}

	if err := store.DeleteMessage(created.MessageID); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}

	_, err = store.GetMessage(created.MessageID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	err = store.DeleteMessage(created.MessageID)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) || notFound.Value != created.MessageID {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestEmptyIDIsRejected(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetMessage(""); err == nil {
		t.Fatal("expected error for empty ID on get")
	}
	if err := store.DeleteMessage(""); err == nil {
		t.Fatal("expected error for empty ID on delete")
	}
}

func TestMessageModel(t *testing.T) {
	row := Message{Seq: 3, MessageID: "abc", Content: "kayak", IsPalindrome: true, CreatedAt: "2024-06-01T12:00:00Z"}

	got := row.Model()
	want := models.Message{
		ID:           models.StringID("abc"),
		Text:         "kayak",
		IsPalindrome: true,
		CreatedAt:    "2024-06-01T12:00:00Z",
	}
	if got.ID.String() != want.ID.String() || got.Text != want.Text || got.IsPalindrome != want.IsPalindrome || got.CreatedAt != want.CreatedAt {
		t.Fatalf("unexpected model: %+v", got)
	}
	if got.DetailsVisible != nil {
		t.Fatal("stored rows must not carry a details flag")
	}
}

func TestIsPalindrome(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"racecar", true},
		{"RaceCar", true},
		{"Was it a car or a cat I saw?", true},
		{"No 'x' in Nixon", true},
		{"hello", false},
		{"a", true},
		{"", true},
		{"ab", false},
	}

	for _, tc := range cases {
		if got := IsPalindrome(tc.text); got != tc.want {
			t.Errorf("IsPalindrome(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
