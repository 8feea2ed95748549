package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storygen/internal/api"
	"storygen/internal/domain"
	"storygen/internal/infra"
	"storygen/internal/storage"
	"storygen/internal/story"
	"storygen/pkg/zip"
)

func main() {
	prompt := flag.String("prompt", "", "story prompt (required)")
	formats := flag.String("formats", "Text Story", "comma-separated output formats")
	locale := flag.String("locale", "", "content locale, e.g. en or id (defaults to STORY_LOCALE)")
	save := flag.Bool("save", false, "save story.json and images under STORAGE_PATH")
	archive := flag.Bool("archive", false, "save and additionally bundle the story into a zip")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort if the job is not finished in time")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storygen: %v\n", err)
		os.Exit(2)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if strings.TrimSpace(*prompt) == "" {
		fmt.Fprintln(os.Stderr, `usage: storygen -prompt "a story about ..." [-formats "Text Story,Comic Book"] [-locale id] [-save] [-archive] [-timeout 5m]`)
		os.Exit(2)
	}

	contentLocale := strings.TrimSpace(*locale)
	if contentLocale == "" {
		contentLocale = cfg.Locale
	}

	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.StoryAPIURL,
		RequestTimeout: cfg.RequestTimeout,
		Locale:         contentLocale,
		Logger:         &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "storygen: %v\n", err)
		os.Exit(2)
	}

	display := newDisplay()
	terminal := make(chan story.Snapshot, 1)
	ctrl, err := story.NewController(story.Options{
		Client:       client,
		PollInterval: cfg.PollInterval,
		FactInterval: cfg.FactInterval,
		Observer: func(domain.StoryResult) {
			fmt.Println()
			fmt.Println("Your story is ready.")
		},
		OnChange: func(snap story.Snapshot) {
			display.render(snap)
			if snap.Phase.Terminal() {
				select {
				case terminal <- snap:
				default:
				}
			}
		},
		Logger: &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "storygen: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := domain.StoryRequest{Prompt: *prompt, Formats: splitFormats(*formats)}
	if err := ctrl.Start(ctx, req); err != nil {
		fmt.Fprintf(os.Stderr, "storygen: %v\n", err)
		os.Exit(2)
	}

	select {
	case snap := <-terminal:
		if snap.Phase == story.PhaseFailed {
			fmt.Fprintf(os.Stderr, "storygen: story generation failed: %s\n", snap.Message)
			os.Exit(1)
		}
		printStory(snap.Result)
		if *save || *archive {
			if err := saveStory(context.Background(), cfg, client, *prompt, snap.Result, *archive); err != nil {
				fmt.Fprintf(os.Stderr, "storygen: save failed: %v\n", err)
				os.Exit(1)
			}
		}
	case <-ctx.Done():
		resetController(ctrl)
		fmt.Fprintln(os.Stderr, "storygen: interrupted, job abandoned")
		os.Exit(1)
	case <-time.After(*timeout):
		resetController(ctrl)
		fmt.Fprintf(os.Stderr, "storygen: no result after %s, giving up\n", *timeout)
		os.Exit(1)
	}
}

// display serializes CLI rendering: snapshots arrive from poll and rotation
// goroutines and must not interleave mid-line.
type display struct {
	mu        sync.Mutex
	lastPhase story.Phase
	lastFact  string
	started   bool
}

func newDisplay() *display {
	return &display{lastPhase: story.PhaseIdle}
}

func (d *display) render(snap story.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if snap.Phase != d.lastPhase {
		d.lastPhase = snap.Phase
		switch snap.Phase {
		case story.PhaseSubmitting:
			fmt.Println("Submitting your story request...")
		case story.PhaseAwaitingCompletion:
			fmt.Printf("Job %d accepted, generating...\n", snap.JobID)
		case story.PhaseCompleting:
			fmt.Println("Finishing up...")
		}
	}

	if fact, ok := snap.CurrentFact(); ok && snap.Phase == story.PhaseAwaitingCompletion {
		if fact.Question != d.lastFact {
			d.lastFact = fact.Question
			if !d.started {
				d.started = true
				fmt.Println("While you wait:")
			}
			fmt.Printf("  %s %s\n", fact.Question, fact.Answer)
		}
	}
}

func printStory(result *domain.StoryResult) {
	if result == nil {
		return
	}
	fmt.Println()
	fmt.Println(result.Title)
	fmt.Println(strings.Repeat("=", len(result.Title)))
	fmt.Println()
	fmt.Println(result.Body)
	if len(result.Images) > 0 {
		fmt.Println()
		fmt.Println("Illustrations:")
		for _, u := range result.Images {
			fmt.Printf("  %s\n", u)
		}
	}
}

// saveStory writes story.json and every downloadable image under
// STORAGE_PATH, and, when bundle is set, a zip with the same contents.
func saveStory(ctx context.Context, cfg *infra.Config, client *api.Client, prompt string, result *domain.StoryResult, bundle bool) error {
	if result == nil {
		return errors.New("no result to save")
	}
	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return err
	}

	slug := storySlug(prompt)
	dir := "saved/" + slug

	storyJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	storyKey, err := files.Write(ctx, dir+"/story.json", storyJSON)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", storyKey)

	entries := []zip.Entry{{Name: "story.json", Data: storyJSON}}

	for i, imageURL := range result.Images {
		data, contentType, err := client.Download(ctx, imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "storygen: skipping image %d: %v\n", i+1, err)
			continue
		}
		name := fmt.Sprintf("image-%02d%s", i+1, extensionFor(contentType))
		key, err := files.Write(ctx, dir+"/"+name, data)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", key)
		if bundle {
			entries = append(entries, zip.Entry{Name: name, Data: data})
		}
	}

	if bundle {
		archive, err := zip.Archive(entries)
		if err != nil {
			return err
		}
		key, err := files.Write(ctx, "saved/"+slug+".zip", archive)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", key)
	}
	return nil
}

// resetController backs the controller out of the current job. A reset that
// lands during the completion critical section is refused, so wait for the
// terminal state and retry once.
func resetController(ctrl *story.Controller) {
	for i := 0; i < 50; i++ {
		err := ctrl.Reset()
		if !errors.Is(err, domain.ErrBusy) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func splitFormats(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func storySlug(prompt string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(prompt)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "story"
	}
	return slug + "-" + time.Now().UTC().Format("20060102-150405")
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".bin"
	}
}
