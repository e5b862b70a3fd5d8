package chat

// StreamPhase es la fase observable de una sesión desde el receptor.
type StreamPhase string

const (
	PhaseIdle             StreamPhase = "idle"
	PhaseAwaitingResponse StreamPhase = "awaiting_response"
	PhaseStreaming        StreamPhase = "streaming"
)

// StreamState implementa la máquina de estados por sesión:
// idle → awaiting_response (typing_start) → streaming (primer chunk) →
// idle (typing_end). Un chunk en idle abre streaming directamente, para
// cubrir un typing_start perdido.
type StreamState struct {
	phase StreamPhase
}

func NewStreamState() *StreamState {
	return &StreamState{phase: PhaseIdle}
}

func (s *StreamState) Phase() StreamPhase {
	return s.phase
}

func (s *StreamState) OnTypingStart() {
	if s.phase == PhaseIdle {
		s.phase = PhaseAwaitingResponse
	}
}

// OnChunk devuelve true si la transición abrió una respuesta nueva (no
// había ninguna en curso).
func (s *StreamState) OnChunk() bool {
	opened := s.phase != PhaseStreaming
	s.phase = PhaseStreaming
	return opened
}

func (s *StreamState) OnTypingEnd() {
	s.phase = PhaseIdle
}
