package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"andse-chat/internal/chat"
)

var (
	// ErrPermissionDenied indica micrófono inexistente o permiso negado; el
	// llamador lo muestra al usuario, no reintenta solo.
	ErrPermissionDenied = errors.New("capture device unavailable or denied")
	// ErrRecorderBusy indica un start con una grabación ya en curso.
	ErrRecorderBusy = errors.New("recording already in progress")
	// ErrTranscriptionFailed indica que el STT no devolvió transcript.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrTimeout indica que el pedido de transcripción excedió su plazo.
	ErrTimeout = errors.New("transcription timed out")
)

// PipelineState es el estado del pipeline de audio.
type PipelineState string

const (
	PipelineIdle       PipelineState = "idle"
	PipelineRecording  PipelineState = "recording"
	PipelineProcessing PipelineState = "processing"
)

// Recorder abstrae la captura de audio del dispositivo.
type Recorder interface {
	// Start toma el micrófono; falla si el dispositivo no está disponible.
	Start(ctx context.Context) error
	// Stop libera el hardware incondicionalmente y devuelve lo capturado.
	Stop() ([]byte, error)
}

// TranscriptRequester pide la transcripción al servidor.
type TranscriptRequester interface {
	RequestTranscript(ctx context.Context, audio []byte) (string, error)
}

// AudioPipeline: idle → recording → processing → idle. Al terminar con
// éxito stagea el transcript en el composer; en fallo vuelve a idle sin
// tocar nada.
type AudioPipeline struct {
	logger    *zap.Logger
	recorder  Recorder
	requester TranscriptRequester
	composer  *chat.Composer
	timeout   time.Duration

	state PipelineState
}

func NewAudioPipeline(logger *zap.Logger, recorder Recorder, requester TranscriptRequester, composer *chat.Composer, timeout time.Duration) *AudioPipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AudioPipeline{
		logger:    logger,
		recorder:  recorder,
		requester: requester,
		composer:  composer,
		timeout:   timeout,
		state:     PipelineIdle,
	}
}

func (p *AudioPipeline) State() PipelineState {
	return p.state
}

// StartRecording toma el dispositivo; con permiso negado el pipeline queda
// en idle y el composer intacto.
func (p *AudioPipeline) StartRecording(ctx context.Context) error {
	if p.state != PipelineIdle {
		return ErrRecorderBusy
	}
	if err := p.recorder.Start(ctx); err != nil {
		p.logger.Warn("recorder start failed", zap.Error(err))
		return ErrPermissionDenied
	}
	p.state = PipelineRecording
	return nil
}

// StopRecording siempre transiciona por processing y siempre libera el
// dispositivo; la liberación y el manejo del resultado son caminos de
// salida independientes.
func (p *AudioPipeline) StopRecording(ctx context.Context) error {
	if p.state != PipelineRecording {
		return ErrRecorderBusy
	}
	p.state = PipelineProcessing
	defer func() { p.state = PipelineIdle }()

	audio, err := p.recorder.Stop()
	if err != nil {
		p.logger.Warn("recorder stop failed", zap.Error(err))
		return ErrTranscriptionFailed
	}
	if len(audio) == 0 {
		return ErrTranscriptionFailed
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.requester.RequestTranscript(reqCtx, audio)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		p.logger.Warn("transcript request failed", zap.Error(err))
		return ErrTranscriptionFailed
	}

	p.composer.StageTranscript(text)
	return nil
}
