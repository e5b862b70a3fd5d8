package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/domain"
)

var (
	// ErrUploadInFlight indica una subida iniciada con otra todavía en
	// curso; se rechaza, no se pisa en silencio.
	ErrUploadInFlight = errors.New("upload already in flight")
	// ErrUploadFailed envuelve el motivo legible del fallo de subida.
	ErrUploadFailed = errors.New("upload failed")
)

// UploadRequester sube el archivo al servidor y devuelve la referencia.
type UploadRequester interface {
	RequestUpload(ctx context.Context, filename string, content []byte) (domain.Attachment, error)
}

// FilePipeline maneja una subida por vez; el éxito stagea el adjunto en el
// composer, el fallo no stagea nada.
type FilePipeline struct {
	logger    *zap.Logger
	requester UploadRequester
	composer  *chat.Composer
	timeout   time.Duration

	inFlight atomic.Bool
}

func NewFilePipeline(logger *zap.Logger, requester UploadRequester, composer *chat.Composer, timeout time.Duration) *FilePipeline {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FilePipeline{
		logger:    logger,
		requester: requester,
		composer:  composer,
		timeout:   timeout,
	}
}

func (p *FilePipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Upload sube un archivo elegido por el usuario. Un segundo pedido mientras
// hay uno en vuelo falla con ErrUploadInFlight.
func (p *FilePipeline) Upload(ctx context.Context, filename string, content []byte) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrUploadInFlight
	}
	defer p.inFlight.Store(false)

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	attachment, err := p.requester.RequestUpload(reqCtx, filename, content)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		p.logger.Warn("upload request failed", zap.Error(err), zap.String("filename", filename))
		return fmt.Errorf("%w: %s", ErrUploadFailed, err.Error())
	}

	p.composer.StageFile(attachment)
	return nil
}
