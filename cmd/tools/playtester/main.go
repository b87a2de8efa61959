package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/chytanka/backend/internal/client"
	"github.com/zhouzirui/chytanka/backend/internal/config"
	"github.com/zhouzirui/chytanka/backend/internal/game"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "play", "word, image, tts, verdict or play")
	text := flag.String("text", "", "text to synthesize or target word to judge")
	prompt := flag.String("prompt", "", "illustration prompt")
	audioPath := flag.String("audio", "", "recording to judge or to replay as microphone input")
	outDir := flag.String("out", "playtester-out", "directory for played audio and images")
	rounds := flag.Int("rounds", 1, "rounds to play in play mode")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	proxy := client.New(cfg.Client.APIBaseURL, cfg.Client.Timeout)
	log.Printf("using proxy %s", cfg.Client.APIBaseURL)

	switch *mode {
	case "word":
		err = runWord(ctx, proxy)
	case "image":
		err = runImage(ctx, proxy, *prompt, *outDir)
	case "tts":
		err = runTTS(ctx, proxy, *text, *outDir)
	case "verdict":
		err = runVerdict(ctx, proxy, *text, *audioPath)
	case "play":
		err = runPlay(ctx, cfg, proxy, *audioPath, *outDir, *rounds)
	default:
		flag.Usage()
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}
}

func runWord(ctx context.Context, proxy *client.Client) error {
	challenge, err := proxy.FetchWord(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Printf("word: %s\n", challenge.NormalizedWord)
	for _, line := range challenge.DisplayForm {
		fmt.Printf("  %s\n", line)
	}
	fmt.Printf("prompt: %s\n", challenge.IllustrationPrompt)
	return nil
}

func runImage(ctx context.Context, proxy *client.Client, prompt, outDir string) error {
	if prompt == "" {
		return fmt.Errorf("-prompt is required")
	}
	img, err := proxy.FetchIllustration(ctx, prompt)
	if err != nil {
		return err
	}
	return saveDataURL(img.DataURL, outDir)
}

func runTTS(ctx context.Context, proxy *client.Client, text, outDir string) error {
	if text == "" {
		return fmt.Errorf("-text is required")
	}
	audio, err := proxy.FetchSpeech(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("received %d bytes of %s audio\n", len(audio.Data), audio.Format)

	device, err := newWAVPlayback(outDir)
	if err != nil {
		return err
	}
	return game.NewPlayback(device).Play(ctx, audio.Data)
}

func runVerdict(ctx context.Context, proxy *client.Client, target, audioPath string) error {
	if target == "" || audioPath == "" {
		return fmt.Errorf("-text and -audio are required")
	}
	encoding, err := encodingForPath(audioPath)
	if err != nil {
		return err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}

	correct, err := proxy.FetchVerdict(ctx, target, audio, encoding)
	if err != nil {
		return err
	}
	fmt.Printf("target %q correct=%t\n", target, correct)
	return nil
}

// runPlay drives the game controller headlessly. Every attempt replays the
// same recording.
func runPlay(ctx context.Context, cfg *config.Config, proxy *client.Client, audioPath, outDir string, rounds int) error {
	if audioPath == "" {
		return fmt.Errorf("-audio is required in play mode")
	}
	capture, err := newFileCapture(audioPath)
	if err != nil {
		return err
	}
	playback, err := newWAVPlayback(outDir)
	if err != nil {
		return err
	}

	recency := game.NewRecencyStore(game.NewFileStorage(cfg.Client.HistoryDir))
	controller := game.NewController(ctx, proxy, recency, capture, playback)
	defer controller.Close()

	controller.OnChange(func(s game.Snapshot) {
		log.Printf("[play] round=%d state=%s attempts=%d media=%t", s.Round, s.State, s.Attempts, s.MediaLoading)
	})

	for round := 1; round <= rounds; round++ {
		if round == 1 {
			err = controller.Start(ctx)
		} else {
			err = controller.Advance(ctx)
		}
		if err != nil {
			return err
		}
		if err := playRound(ctx, controller, outDir); err != nil {
			return err
		}
	}

	controller.Wait()
	return nil
}

func playRound(ctx context.Context, controller *game.Controller, outDir string) error {
	controller.Wait()

	snap := controller.Snapshot()
	fmt.Printf("\nread: %s\n", strings.Join(snap.Challenge.DisplayForm, " / "))

	for !controller.Snapshot().State.RoundOver() {
		if err := controller.StartRecording(ctx); err != nil {
			return err
		}
		if err := controller.StopRecording(ctx); err != nil {
			return err
		}

		snap = controller.Snapshot()
		if snap.HintUnlocked && snap.SpeechAvailable && !snap.State.RoundOver() {
			fmt.Println("hint: playing the word")
			if err := controller.PlayWord(ctx); err != nil {
				log.Printf("[play] hint unavailable: %v", err)
			}
		}
	}

	controller.Wait()
	snap = controller.Snapshot()
	fmt.Printf("result: %s after %d incorrect attempts\n", snap.State, snap.Attempts)
	if snap.Illustration != nil {
		return saveDataURL(snap.Illustration.DataURL, outDir)
	}
	return nil
}

func saveDataURL(dataURL, outDir string) error {
	header, encoded, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return fmt.Errorf("not a data url")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	ext := ".png"
	if strings.Contains(header, "jpeg") {
		ext = ".jpg"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(outDir, fmt.Sprintf("illustration-%d%s", time.Now().UnixNano(), ext))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("illustration saved to %s\n", name)
	return nil
}
