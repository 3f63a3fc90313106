// Package texttospeech binds Watson Text to Speech credentials to a
// texttospeechv1 client.
package texttospeech

import (
	"context"
	"fmt"
	"io"

	"github.com/watson-developer-cloud/go-sdk/v2/texttospeechv1"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/services/watson"
)

// ServiceName is the name the client is registered under.
const ServiceName = "watson-text-to-speech"

// Configuration keys. KeyURL is optional.
const (
	keyPrefix   = "watson_text_to_speech"
	KeyUsername = keyPrefix + "_username"
	KeyPassword = keyPrefix + "_password"
	KeyURL      = keyPrefix + "_url"
)

// New resolves the credentials and builds a client that opts out of Watson
// learning.
func New(env binding.Getter, deps binding.Deps) (*texttospeechv1.TextToSpeechV1, error) {
	creds, err := watson.LoadCredentials(env, keyPrefix, texttospeechv1.DefaultServiceURL)
	if err != nil {
		return nil, err
	}
	auth, err := creds.Authenticator()
	if err != nil {
		return nil, err
	}

	client, err := texttospeechv1.NewTextToSpeechV1(&texttospeechv1.TextToSpeechV1Options{
		URL:           creds.URL,
		Authenticator: auth,
	})
	if err != nil {
		return nil, err
	}
	watson.Configure(client.Service, deps)
	return client, nil
}

// GetService is the binding.Factory for text to speech.
func GetService(env binding.Getter, deps binding.Deps) (string, any, error) {
	client, err := New(env, deps)
	if err != nil {
		return ServiceName, nil, err
	}
	return ServiceName, client, nil
}

// Synthesizer turns text into audio through a bound client.
type Synthesizer struct {
	client *texttospeechv1.TextToSpeechV1
}

// NewSynthesizer wraps client.
func NewSynthesizer(client *texttospeechv1.TextToSpeechV1) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize returns the audio stream and its content type. Empty voice and
// accept values leave the service defaults in place.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice, accept string) (io.ReadCloser, string, error) {
	opts := s.client.NewSynthesizeOptions(text)
	if voice != "" {
		opts.SetVoice(voice)
	}
	if accept != "" {
		opts.SetAccept(accept)
	}

	audio, resp, err := s.client.SynthesizeWithContext(ctx, opts)
	if err != nil {
		return nil, "", fmt.Errorf("synthesize: %w", err)
	}

	contentType := accept
	if resp != nil {
		if ct := resp.GetHeaders().Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}
	if contentType == "" {
		contentType = "audio/ogg;codecs=opus"
	}
	return audio, contentType, nil
}
