// Command foun-voice is a terminal voice client for Foun: it records
// from the microphone, transcribes through Whisper, streams the model's
// reply, and speaks it sentence by sentence through ElevenLabs.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/foun-chat/foun/pkg/core"
	"github.com/foun-chat/foun/pkg/core/prompt"
	"github.com/foun-chat/foun/pkg/core/providers/anthropic"
	"github.com/foun-chat/foun/pkg/core/providers/deepseek"
	"github.com/foun-chat/foun/pkg/core/routing"
	"github.com/foun-chat/foun/pkg/core/types"
	"github.com/foun-chat/foun/pkg/core/voice"
	"github.com/foun-chat/foun/pkg/core/voice/stt"
	"github.com/foun-chat/foun/pkg/core/voice/tts"
	"github.com/foun-chat/foun/pkg/gateway/config"
)

func main() {
	name := flag.String("name", "Founder", "your name in the conversation")
	company := flag.String("company", "", "your company name")
	voicePick := flag.String("voice", "male", "foun voice: male or female")
	continuous := flag.Bool("continuous", false, "resume listening after each reply")
	visioner := flag.Bool("visioner", false, "force the creative provider")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*name, *company, *voicePick, *continuous, *visioner); err != nil {
		fmt.Fprintf(os.Stderr, "foun-voice: %v\n", err)
		os.Exit(1)
	}
}

func run(name, company, voicePick string, continuous, visioner bool) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	creds := cfg.Credentials()
	if creds.DeepSeekKey == "" && creds.AnthropicKey == "" {
		return core.NewConfigurationError("set DEEPSEEK_API_KEY or ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY")
	}
	if cfg.ElevenLabsAPIKey == "" {
		return core.NewConfigurationError("set ELEVENLABS_API_KEY for speech output", "ELEVENLABS_API_KEY")
	}

	mic, player, cleanup, err := initAudio()
	if err != nil {
		return err
	}
	defer cleanup()

	identity := voice.IdentityForVoice(voicePick)
	ttsClient := tts.NewClient(cfg.ElevenLabsAPIKey)
	settings := tts.Settings{
		Stability:       identity.Stability,
		SimilarityBoost: identity.SimilarityBoost,
		Style:           identity.Style,
		SpeakerBoost:    identity.SpeakerBoost,
	}

	stateCh := make(chan voice.State, 16)
	session := voice.NewSession(voice.SessionOptions{
		Synthesizer: &streamSynth{client: ttsClient, settings: settings},
		Player:      player,
		Continuous:  continuous,
		OnState:     func(st voice.State) { stateCh <- st },
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "\nsynteza nie powiodła się: %v\n", err)
		},
	})

	profile := types.Profile{
		Name:        name,
		CompanyName: company,
		FounVoice:   voicePick,
	}
	system := prompt.BuildSystemPrompt(prompt.Options{
		Profile:      profile,
		VisionerMode: visioner,
	})

	var sttClient *stt.Client
	if cfg.OpenAIAPIKey != "" {
		sttClient = stt.NewClient(cfg.OpenAIAPIKey)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ctx := context.Background()
	var messages []types.Message

	fmt.Printf("Cześć! Tu %s. [Enter] nagrywa, tekst wysyła od razu, 'q' kończy.\n", identity.Name)
	for {
		fmt.Print("\n> ")
		line, ok := <-lines
		if !ok || line == "q" {
			return nil
		}

		userText := strings.TrimSpace(line)
		if userText == "" {
			if sttClient == nil {
				fmt.Println("nagrywanie wymaga OPENAI_API_KEY; wpisz tekst")
				continue
			}
			mic.Begin()
			fmt.Print("nagrywam... [Enter] kończy\n")
			if _, ok := <-lines; !ok {
				return nil
			}
			pcm := mic.End()
			if len(pcm) == 0 {
				fmt.Println("nic nie nagrano")
				continue
			}
			wav := encodeWAV(pcm, sampleRate, channels)
			userText, err = sttClient.Transcribe(ctx, bytes.NewReader(wav), "clip.wav")
			if err != nil {
				fmt.Fprintf(os.Stderr, "transkrypcja: %v\n", err)
				continue
			}
			userText = strings.TrimSpace(userText)
			if userText == "" {
				fmt.Println("nie zrozumiałem, spróbuj jeszcze raz")
				continue
			}
			fmt.Printf("ty: %s\n", userText)
		}

		messages = append(messages, types.Message{Role: types.RoleUser, Content: userText})

		decision := routing.Route(messages, visioner, creds)
		if decision.APIKey == "" {
			return core.NewConfigurationError("missing DeepSeek API key", "DEEPSEEK_API_KEY")
		}
		provider := newProvider(decision)

		session.BeginResponse(ctx, identity.VoiceID)
		stream, err := provider.Stream(ctx, &types.ChatRequest{
			Messages: messages,
			System:   system,
		})
		if err != nil {
			session.Abort()
			fmt.Fprintf(os.Stderr, "%s: %v\n", provider.Name(), err)
			messages = messages[:len(messages)-1]
			continue
		}

		fmt.Printf("%s: ", identity.Name)
		var reply strings.Builder
		for {
			delta, err := stream.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					fmt.Fprintf(os.Stderr, "\nstrumień przerwany: %v\n", err)
				}
				break
			}
			fmt.Print(delta)
			reply.WriteString(delta)
			session.OnDelta(delta)
		}
		_ = stream.Close()
		fmt.Println()
		session.FinishResponse()

		waitForQuiet(session, stateCh, lines)
		messages = append(messages, types.Message{Role: types.RoleAssistant, Content: reply.String()})
	}
}

// waitForQuiet blocks until playback drains. An Enter press while the
// reply is being spoken aborts it.
func waitForQuiet(session *voice.Session, stateCh <-chan voice.State, lines <-chan string) {
	if st := session.State(); st == voice.StateIdle || st == voice.StateListening {
		return
	}
	for {
		select {
		case st := <-stateCh:
			if st == voice.StateIdle || st == voice.StateListening {
				return
			}
		case _, ok := <-lines:
			if !ok {
				session.Abort()
				return
			}
			session.Abort()
		}
	}
}

func newProvider(d routing.Decision) core.Provider {
	if d.Provider == routing.ProviderCreative {
		return anthropic.New(d.APIKey)
	}
	return deepseek.New(d.APIKey)
}

// streamSynth synthesizes one sentence over the stream-input websocket
// and returns the raw PCM, which the speaker plays directly.
type streamSynth struct {
	client   *tts.Client
	settings tts.Settings
}

func (s *streamSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	stream, err := s.client.OpenStream(ctx, tts.StreamOptions{
		VoiceID:  voiceID,
		Settings: &s.settings,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.SendText(text); err != nil {
		return nil, err
	}
	if err := stream.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for chunk := range stream.Audio() {
		buf.Write(chunk)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, core.NewSynthesisError("no audio returned")
	}
	return buf.Bytes(), nil
}
