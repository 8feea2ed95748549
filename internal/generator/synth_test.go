package generator

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	gen := New(Options{})
	req := Request{
		JobID:   42,
		Prompt:  "a dragon who learns to paint",
		Formats: []string{"Text Story", "Comic"},
		Locale:  "en",
	}

	first, err := gen.Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := gen.Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if first.Title != second.Title {
		t.Fatalf("title = %q, want %q", second.Title, first.Title)
	}
	if first.Body != second.Body {
		t.Fatalf("body changed between runs")
	}
	if len(first.Images) != len(second.Images) {
		t.Fatalf("image count = %d, want %d", len(second.Images), len(first.Images))
	}
	for i := range first.Images {
		if first.Images[i].StorageKey != second.Images[i].StorageKey {
			t.Fatalf("image %d key = %q, want %q", i, second.Images[i].StorageKey, first.Images[i].StorageKey)
		}
		if !bytes.Equal(first.Images[i].Data, second.Images[i].Data) {
			t.Fatalf("image %d bytes changed between runs", i)
		}
	}
}

func TestGenerateTitleFromPrompt(t *testing.T) {
	gen := New(Options{})

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "short prompt", prompt: "a dragon who learns to paint", want: "A Dragon Who Learns To Paint"},
		{name: "long prompt truncated", prompt: "the quiet lighthouse keeper and the storm that never came", want: "The Quiet Lighthouse Keeper And The"},
		{name: "surrounding whitespace", prompt: "  midnight library  ", want: "Midnight Library"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story, err := gen.Generate(Request{JobID: 1, Prompt: tt.prompt})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if story.Title != tt.want {
				t.Fatalf("title = %q, want %q", story.Title, tt.want)
			}
		})
	}
}

func TestGenerateBodyEmbedsPrompt(t *testing.T) {
	gen := New(Options{})
	prompt := "a comet trapped in a bottle"

	story, err := gen.Generate(Request{JobID: 9, Prompt: prompt})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(story.Body, prompt) {
		t.Fatalf("body does not mention the prompt: %q", story.Body)
	}
	if got := len(strings.Split(story.Body, "\n\n")); got != 3 {
		t.Fatalf("paragraphs = %d, want 3", got)
	}
}

func TestGenerateLocaleSelectsBank(t *testing.T) {
	gen := New(Options{})
	req := Request{JobID: 3, Prompt: "seekor naga yang belajar melukis"}

	req.Locale = "id-ID"
	indonesian, err := gen.Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req.Locale = "id"
	plain, err := gen.Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if indonesian.Body != plain.Body {
		t.Fatalf("locale normalization changed output: %q vs %q", indonesian.Body, plain.Body)
	}

	req.Locale = "en"
	english, err := gen.Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if english.Body == indonesian.Body {
		t.Fatalf("en and id bodies should differ")
	}
}

func TestGenerateImageCountFollowsFormats(t *testing.T) {
	gen := New(Options{})

	tests := []struct {
		name    string
		formats []string
		want    int
	}{
		{name: "text only", formats: []string{"Text Story"}, want: 0},
		{name: "one illustrated", formats: []string{"Text Story", "Comic"}, want: 1},
		{name: "two illustrated", formats: []string{"Picture Book", "Comic Strip"}, want: 2},
		{name: "clamped", formats: []string{"Comic", "Picture Book", "Illustrated Story", "Cover Art", "Image Set", "Comic Strip"}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story, err := gen.Generate(Request{JobID: 5, Prompt: "dragons", Formats: tt.formats})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(story.Images) != tt.want {
				t.Fatalf("images = %d, want %d", len(story.Images), tt.want)
			}
		})
	}
}

func TestGenerateImagesAreDecodablePNGs(t *testing.T) {
	gen := New(Options{})

	story, err := gen.Generate(Request{
		JobID:   7,
		Prompt:  "a knight afraid of the dark",
		Formats: []string{"Comic", "Picture Book"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(story.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(story.Images))
	}

	for i, img := range story.Images {
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("image %d is not a png: %v", i, err)
		}
		if cfg.Width != img.Width || cfg.Height != img.Height {
			t.Fatalf("image %d dimensions = %dx%d, want %dx%d", i, cfg.Width, cfg.Height, img.Width, img.Height)
		}
		if img.Format != "image/png" {
			t.Fatalf("image %d format = %q, want image/png", i, img.Format)
		}
		if !strings.HasPrefix(img.StorageKey, "stories/7/") {
			t.Fatalf("image %d key = %q, want stories/7/ prefix", i, img.StorageKey)
		}
	}

	if bytes.Equal(story.Images[0].Data, story.Images[1].Data) {
		t.Fatalf("frames should differ between indexes")
	}
	if story.Images[0].StorageKey == story.Images[1].StorageKey {
		t.Fatalf("storage keys should differ between indexes")
	}
}
