package telegram

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestSplitMessageShortPassesThrough(t *testing.T) {
	chunks := splitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitMessagePrefersParagraphBoundaries(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	chunks := splitMessage(a+"\n\n"+b, 100)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want split at the paragraph", len(chunks))
	}
	if chunks[0] != a || chunks[1] != b {
		t.Fatalf("chunks = %q", chunks)
	}
}

func TestSplitMessageHardSplitsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := splitMessage(text, 100)
	total := 0
	for _, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk over limit: %d", len(c))
		}
		total += len(c)
	}
	if total != 250 {
		t.Fatalf("content lost: %d of 250 bytes", total)
	}
}

func TestCaptionCommand(t *testing.T) {
	cases := []struct {
		caption  string
		wantCmd  string
		wantArgs string
	}{
		{"/gpt summarize this", "gpt", "summarize this"},
		{"/gemini", "gemini", ""},
		{"/gpt@relaybot check the log", "gpt", "check the log"},
		{"summarize this", "", "summarize this"},
		{"  /gpt   spaced  ", "gpt", "spaced"},
		{"", "", ""},
	}
	for _, tc := range cases {
		cmd, args := captionCommand(tc.caption)
		if cmd != tc.wantCmd || args != tc.wantArgs {
			t.Errorf("captionCommand(%q) = %q, %q; want %q, %q",
				tc.caption, cmd, args, tc.wantCmd, tc.wantArgs)
		}
	}
}

func TestDocumentCommandRouting(t *testing.T) {
	doc := &tgbotapi.Document{FileName: "notes.txt", MimeType: "text/plain"}
	cases := []struct {
		name    string
		caption string
		want    string
	}{
		{"captioned relay command", "/gpt summarize this", "gpt"},
		{"gemini caption", "/gemini translate", "gemini"},
		{"plain caption defaults to relay", "what is this?", "gpt"},
		{"no caption defaults to relay", "", "gpt"},
		{"non-relay command ignored", "/privacy deny", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &tgbotapi.Message{Document: doc, Caption: tc.caption}
			if got := documentCommand(msg); got != tc.want {
				t.Fatalf("documentCommand = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPromptTextUsesCaptionForDocuments(t *testing.T) {
	doc := &tgbotapi.Document{FileName: "notes.txt", MimeType: "text/plain"}

	msg := &tgbotapi.Message{Document: doc, Caption: "/gpt summarize this"}
	if got := promptText(msg); got != "summarize this" {
		t.Fatalf("promptText = %q, want caption remainder", got)
	}

	msg = &tgbotapi.Message{Document: doc, Caption: "just a note"}
	if got := promptText(msg); got != "just a note" {
		t.Fatalf("promptText = %q, want bare caption", got)
	}

	msg = &tgbotapi.Message{Document: doc}
	if got := promptText(msg); got != "" {
		t.Fatalf("promptText = %q, want empty for uncaptioned document", got)
	}

	// A plain text command still reads its arguments from entities.
	msg = &tgbotapi.Message{
		Text:     "/gpt hello there",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 4}},
	}
	if got := promptText(msg); got != "hello there" {
		t.Fatalf("promptText = %q, want command arguments", got)
	}
}

func TestIsTextDocument(t *testing.T) {
	cases := []struct {
		name string
		doc  tgbotapi.Document
		want bool
	}{
		{"mime text", tgbotapi.Document{MimeType: "text/plain", FileName: "notes.bin"}, true},
		{"md extension", tgbotapi.Document{MimeType: "application/octet-stream", FileName: "README.md"}, true},
		{"uppercase extension", tgbotapi.Document{FileName: "DATA.CSV"}, true},
		{"pdf", tgbotapi.Document{MimeType: "application/pdf", FileName: "report.pdf"}, false},
		{"no hints", tgbotapi.Document{FileName: "blob"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTextDocument(&tc.doc); got != tc.want {
				t.Fatalf("isTextDocument = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSplitMessageKeepsSmallParagraphsTogether(t *testing.T) {
	chunks := splitMessage("one\n\ntwo\n\nthree", 100)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %v, want one combined chunk", chunks)
	}
	if !strings.Contains(chunks[0], "one") || !strings.Contains(chunks[0], "three") {
		t.Fatalf("combined chunk = %q", chunks[0])
	}
}
