package word

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSeedIsUsable(t *testing.T) {
	items := Seed()
	if len(items) == 0 {
		t.Fatal("expected embedded fallback words")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			t.Fatalf("seed word %q invalid: %v", item.CleanWord, err)
		}
	}
}

func TestPickSkipsExcludedWords(t *testing.T) {
	pool := NewMemoryPool([]Wire{
		{CleanWord: "Мила кішка", Syllables: "Ми-ла кі-шка"},
		{CleanWord: "Руда лисиця", Syllables: "Ру-да ли-си-ця"},
	})

	got := pool.Pick([]string{"мила кішка"})
	if got.CleanWord != "Руда лисиця" {
		t.Fatalf("expected second word, got %q", got.CleanWord)
	}
}

func TestPickReusesFirstWhenAllExcluded(t *testing.T) {
	pool := NewMemoryPool([]Wire{
		{CleanWord: "кіт", Syllables: "кіт"},
		{CleanWord: "пес", Syllables: "пес"},
	})

	got := pool.Pick([]string{"кіт", "пес"})
	if got.CleanWord != "кіт" {
		t.Fatalf("expected first word, got %q", got.CleanWord)
	}
}

func TestNewMemoryPoolDropsUnusableEntries(t *testing.T) {
	pool := NewMemoryPool([]Wire{{CleanWord: ""}, {CleanWord: "кіт", Syllables: "кіт"}})
	if len(pool.List()) != 1 {
		t.Fatalf("expected 1 usable word, got %d", len(pool.List()))
	}
}

func TestLoadPoolFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.yaml")
	content := "words:\n  - cleanWord: \"сова\"\n    syllables: \"со-ва\"\n    imagePrompt: \"owl\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	items, err := LoadPoolFile(path)
	if err != nil {
		t.Fatalf("LoadPoolFile err: %v", err)
	}
	if len(items) != 1 || items[0].Syllables != "со-ва" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestNewSplitsSyllableGroups(t *testing.T) {
	c, err := New("Мила кішка", "Ми-ла  кі-шка", " cat ")
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	if len(c.DisplayForm) != 2 || c.DisplayForm[0] != "Ми-ла" || c.DisplayForm[1] != "кі-шка" {
		t.Fatalf("unexpected display form: %v", c.DisplayForm)
	}
	if c.IllustrationPrompt != "cat" {
		t.Fatalf("prompt not trimmed: %q", c.IllustrationPrompt)
	}
	if c.Wire().Syllables != "Ми-ла кі-шка" {
		t.Fatalf("unexpected wire syllables: %q", c.Wire().Syllables)
	}
}

func TestNewRejectsEmptyWord(t *testing.T) {
	if _, err := New("  ", "", "x"); err != ErrUnusable {
		t.Fatalf("expected ErrUnusable, got %v", err)
	}
}
