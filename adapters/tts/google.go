package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrEmptyText = errors.New("nothing to synthesize")

type GoogleTTS struct {
	client       *texttospeech.Client
	languageCode string
}

func NewGoogleTTS(ctx context.Context, languageCode string, opts ...option.ClientOption) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Google tts client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &GoogleTTS{client: client, languageCode: languageCode}, nil
}

func (g *GoogleTTS) Close() error {
	return g.client.Close()
}

// Synthesize returns MP3 audio for text.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	req := texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.languageCode,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
	resp, err := g.client.SynthesizeSpeech(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}

	log.WithCtx(ctx).Debug("🔊 Speech synthesized", zap.Int("chars", len(text)), zap.Int("bytes", len(resp.GetAudioContent())))
	return resp.GetAudioContent(), nil
}
