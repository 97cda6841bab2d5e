package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// chunkSize keeps every streamed request well under the 25KB message limit.
const chunkSize = 16 * 1024

type Config struct {
	LanguageCode    string
	SampleRateHertz int32
}

type GoogleSpeech struct {
	client *speech.Client
	config Config
}

func NewGoogleSpeech(ctx context.Context, cfg Config, opts ...option.ClientOption) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHertz == 0 {
		cfg.SampleRateHertz = 16000
	}
	return &GoogleSpeech{client: client, config: cfg}, nil
}

func (g *GoogleSpeech) Close() error {
	return g.client.Close()
}

// Transcribe streams LINEAR16 audio to the recognizer and joins the final
// results.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		return "", fmt.Errorf("creating streaming client: %w", err)
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            g.config.SampleRateHertz,
					LanguageCode:               g.config.LanguageCode,
					EnableAutomaticPunctuation: true,
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sending streaming config: %w", err)
	}

	for _, chunk := range chunks(audio, chunkSize) {
		err := stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
		})
		if err != nil {
			return "", fmt.Errorf("sending audio: %w", err)
		}
	}
	if err := stream.CloseSend(); err != nil {
		return "", fmt.Errorf("closing audio stream: %w", err)
	}

	var parts []string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("receiving transcription: %w", err)
		}
		for _, result := range resp.GetResults() {
			if !result.GetIsFinal() || len(result.GetAlternatives()) == 0 {
				continue
			}
			parts = append(parts, strings.TrimSpace(result.GetAlternatives()[0].GetTranscript()))
		}
	}

	text := strings.Join(parts, " ")
	log.WithCtx(ctx).Debug("🎤 Transcription finished", zap.Int("audio_bytes", len(audio)), zap.Int("chars", len(text)))
	return text, nil
}

func chunks(data []byte, size int) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
