package generator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"storygen/internal/infra"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	illustrationWidth  = 1024
	illustrationHeight = 768
	maxIllustrations   = 4
	maxTitleWords      = 6
)

// Request describes one story to synthesize.
type Request struct {
	JobID   int64
	Prompt  string
	Formats []string
	Locale  string
}

// Image is a rendered placeholder illustration awaiting persistence.
type Image struct {
	StorageKey string
	Format     string
	Width      int
	Height     int
	Data       []byte
}

// Story is the synthesized output for one job.
type Story struct {
	Title  string
	Body   string
	Images []Image
}

// Options configures a Generator.
type Options struct {
	Logger *infra.Logger
}

// Generator produces deterministic placeholder stories. It keeps the whole
// pipeline runnable without model credentials: the same request always yields
// the same title, body, and image bytes.
type Generator struct {
	log infra.Logger
}

func New(opts Options) *Generator {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Generator{log: log}
}

// Generate synthesizes the story for req. Illustrated formats each contribute
// one rendered frame; a plain text story produces none.
func (g *Generator) Generate(req Request) (Story, error) {
	prompt := strings.TrimSpace(req.Prompt)
	locale := normalizeLocale(req.Locale)
	seed := deterministicSeed(req.JobID, prompt, locale)

	story := Story{
		Title: titleFor(prompt, locale),
		Body:  bodyFor(prompt, locale, seed),
	}

	count := illustrationCount(req.Formats)
	for i := 0; i < count; i++ {
		frameSeed := deterministicSeed(req.JobID, prompt, locale, i)
		data := renderIllustration(illustrationWidth, illustrationHeight, frameSeed)
		if len(data) == 0 {
			continue
		}
		story.Images = append(story.Images, Image{
			StorageKey: assetKey(req.JobID, frameSeed, i+1),
			Format:     "image/png",
			Width:      illustrationWidth,
			Height:     illustrationHeight,
			Data:       data,
		})
	}

	g.log.Debug().
		Int64("job_id", req.JobID).
		Str("locale", locale).
		Int("images", len(story.Images)).
		Msg("generator: synthesized story")

	return story, nil
}

func titleFor(prompt, locale string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		if locale == "id" {
			return "Kisah Tanpa Judul"
		}
		return "An Untitled Tale"
	}
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	c := cases.Title(language.Und)
	return c.String(strings.Join(words, " "))
}

type storyBank struct {
	openings []string
	turns    []string
	closings []string
}

var storyBanks = map[string]storyBank{
	"en": {
		openings: []string{
			"There are many stories about %s, but only one of them is true, and this is the one the storytellers saved for winter nights.",
			"Nobody in the valley believed the rumors about %s until the morning the church bells rang on their own.",
			"Every map in the archive had a blank corner, and in that corner lived %s.",
			"The account that follows concerns %s, and it begins, as honest accounts often do, with somebody losing their way.",
		},
		turns: []string{
			"The first days were kind. Then the road turned north and every small comfort had to be bargained for twice.",
			"An old promise resurfaced, and a door that had always been locked stood open. There was nothing to do but walk through.",
			"For a long while nothing moved. Then everything moved at once, the way a frozen river lets go in spring.",
			"Help arrived from the least likely quarter, and it asked for nothing in return except to be remembered.",
		},
		closings: []string{
			"When it was over, the village pretended it had believed in %s all along. The storytellers let them.",
			"Some say the journey changed %s beyond recognition. The truth is simpler: it changed everyone else.",
			"And if you ever find that blank corner of the map, leave a lantern burning for %s. They will know what it means.",
			"The story ends where stories usually end, at a kitchen table with bread and too much laughter, and with %s finally home.",
		},
	},
	"id": {
		openings: []string{
			"Ada banyak cerita tentang %s, tetapi hanya satu yang benar, dan inilah cerita itu.",
			"Tidak ada yang percaya kabar tentang %s sampai pagi itu tiba.",
			"Di sudut peta yang kosong, di sanalah %s tinggal.",
			"Kisah ini tentang %s, dan seperti kisah jujur lainnya, dimulai dari seseorang yang tersesat.",
		},
		turns: []string{
			"Hari-hari pertama berjalan baik. Lalu jalan berbelok ke utara dan segalanya menjadi lebih sulit.",
			"Sebuah janji lama muncul kembali, dan pintu yang selalu terkunci kini terbuka.",
			"Lama sekali tidak ada yang bergerak. Kemudian semuanya bergerak sekaligus, seperti sungai beku yang mencair di musim semi.",
			"Bantuan datang dari arah yang tidak terduga, dan tidak meminta imbalan apa pun.",
		},
		closings: []string{
			"Ketika semuanya usai, seisi desa berpura-pura sudah lama percaya pada %s.",
			"Ada yang bilang perjalanan itu mengubah %s. Yang benar, perjalanan itu mengubah semua orang lain.",
			"Dan jika kau menemukan sudut peta yang kosong itu, nyalakan lentera untuk %s.",
			"Cerita berakhir di meja dapur, dengan roti hangat, dan %s akhirnya pulang.",
		},
	},
}

func bodyFor(prompt, locale, seed string) string {
	bank, ok := storyBanks[locale]
	if !ok {
		bank = storyBanks["en"]
	}
	paragraphs := []string{
		fmt.Sprintf(pick(seed, 0, bank.openings), prompt),
		pick(seed, 1, bank.turns),
		fmt.Sprintf(pick(seed, 2, bank.closings), prompt),
	}
	return strings.Join(paragraphs, "\n\n")
}

func pick(seed string, slot int, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if seed == "" {
		return options[0]
	}
	b := seed[slot%len(seed)]
	return options[int(b)%len(options)]
}

func illustrationCount(formats []string) int {
	count := 0
	for _, f := range formats {
		if illustratedFormat(f) {
			count++
		}
	}
	if count > maxIllustrations {
		return maxIllustrations
	}
	return count
}

func illustratedFormat(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range []string{"comic", "picture", "illustrated", "image", "art"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// assetKey mirrors the public static route layout: stories/<job>/<seed>-<nn>.png.
func assetKey(jobID int64, seed string, index int) string {
	return fmt.Sprintf("stories/%d/%s-%02d.png", jobID, seed, index)
}

// renderIllustration paints a deterministic frame: a seeded sky, a ground
// band below the horizon, vertical accent bands, and a border.
func renderIllustration(width, height int, seed string) []byte {
	if width <= 0 {
		width = illustrationWidth
	}
	if height <= 0 {
		height = illustrationHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	sky := paletteColor(seed, 0)
	ground := paletteColor(seed, 1)
	accent := paletteColor(seed, 2)

	draw.Draw(img, img.Bounds(), &image.Uniform{sky}, image.Point{}, draw.Src)

	horizon := height * 2 / 3
	draw.Draw(img, image.Rect(0, horizon, width, height), &image.Uniform{ground}, image.Point{}, draw.Src)

	bandWidth := width / 16
	if bandWidth < 16 {
		bandWidth = 16
	}
	for x := 0; x < width; x += bandWidth * 3 {
		stripe := image.Rect(x, 0, x+bandWidth, horizon)
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	frame := paletteColor(seed, 3)
	const thickness = 12
	draw.Draw(img, image.Rect(0, 0, width, thickness), &image.Uniform{frame}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, height-thickness, width, height), &image.Uniform{frame}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, thickness, height), &image.Uniform{frame}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(width-thickness, 0, width, height), &image.Uniform{frame}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func paletteColor(seed string, slot int) color.RGBA {
	if len(seed) < 6 {
		seed = "4361ee"
	}
	doubled := seed + seed
	start := (slot * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: hexByte(segment[0:2]),
		G: hexByte(segment[2:4]),
		B: hexByte(segment[4:6]),
		A: 255,
	}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v|", part)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "id" || strings.HasPrefix(locale, "id-") {
		return "id"
	}
	return "en"
}
