package channels

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessage_ShortContentUntouched(t *testing.T) {
	chunks := splitMessage("short reply", 1500)
	if len(chunks) != 1 || chunks[0] != "short reply" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitMessage_SplitsAtNewlines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("a line of reasonable length for testing\n")
	}
	content := sb.String()

	chunks := splitMessage(content, 500)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Errorf("chunk %d length %d exceeds limit with margin", i, len(chunk))
		}
	}
	// Nothing lost apart from boundary whitespace.
	joined := strings.Join(chunks, "\n")
	if strings.ReplaceAll(joined, "\n", "") != strings.ReplaceAll(content, "\n", "") {
		t.Error("split dropped content")
	}
}

func TestSplitMessage_KeepsCodeBlockIntact(t *testing.T) {
	code := "```go\n" + strings.Repeat("x := 1\n", 30) + "```"
	content := strings.Repeat("padding words here ", 20) + "\n" + code

	chunks := splitMessage(content, 300)
	for i, chunk := range chunks {
		if strings.Count(chunk, "```")%2 != 0 {
			t.Errorf("chunk %d has an unclosed code block:\n%s", i, chunk)
		}
	}
}

func TestFindLastUnclosedCodeBlock(t *testing.T) {
	if idx := findLastUnclosedCodeBlock("no blocks at all"); idx != -1 {
		t.Errorf("got %d, want -1", idx)
	}
	if idx := findLastUnclosedCodeBlock("```a``` closed"); idx != -1 {
		t.Errorf("got %d for closed block, want -1", idx)
	}
	text := "before ```go\nopen"
	if idx := findLastUnclosedCodeBlock(text); idx != strings.Index(text, "```") {
		t.Errorf("got %d, want %d", idx, strings.Index(text, "```"))
	}
}

func TestTruncateBytes_CapsByteLength(t *testing.T) {
	if got := truncateBytes("short", 64); got != "short" {
		t.Errorf("truncateBytes short = %q", got)
	}

	title := "深入理解计算机系统：从程序员视角看硬件与软件的协作原理"
	got := truncateBytes(title, telegramCallbackDataLimit)
	if len(got) > telegramCallbackDataLimit {
		t.Fatalf("callback data is %d bytes, exceeds %d", len(got), telegramCallbackDataLimit)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if !strings.HasPrefix(title, got) || got == "" {
		t.Fatalf("unexpected prefix: %q", got)
	}
}

func TestChoiceKeyboard_CallbackDataWithinLimit(t *testing.T) {
	markup := choiceKeyboard([]string{
		"A Short One",
		"深入理解计算机系统：从程序员视角看硬件与软件的协作原理",
	})
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("got %d rows", len(markup.InlineKeyboard))
	}
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				t.Fatal("button has no callback data")
			}
			if n := len(*btn.CallbackData); n > telegramCallbackDataLimit {
				t.Errorf("callback data is %d bytes, exceeds %d", n, telegramCallbackDataLimit)
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	got := truncate("a very long callback payload", 10)
	if got != "a very lon..." {
		t.Errorf("truncate = %q", got)
	}
}
