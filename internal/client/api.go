package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"andse-chat/internal/domain"
)

// API es el cliente REST contra el servidor de chat; cubre el registro de
// sesiones y los endpoints de transcripción y subida. Satisface
// TranscriptRequester y UploadRequester.
type API struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// ListSessions falla suave: ante un servidor inalcanzable devuelve lista
// vacía para que la UI arranque igual.
func (a *API) ListSessions(ctx context.Context) []domain.Session {
	var out struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := a.getJSON(ctx, "/chat/sessions", &out); err != nil {
		return []domain.Session{}
	}
	if out.Sessions == nil {
		return []domain.Session{}
	}
	return out.Sessions
}

func (a *API) NewSession(ctx context.Context) (domain.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/new", nil)
	if err != nil {
		return domain.Session{}, err
	}
	var session domain.Session
	if err := a.doJSON(req, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (a *API) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var out struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := a.getJSON(ctx, "/chat/session/"+sessionID, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (a *API) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.baseURL+"/chat/session/"+sessionID, nil)
	if err != nil {
		return err
	}
	return a.doJSON(req, nil)
}

// RequestTranscript sube el audio capturado y devuelve el transcript.
func (a *API) RequestTranscript(ctx context.Context, audio []byte) (string, error) {
	body, contentType, err := multipartFile("file", "speech.webm", audio)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/transcribe", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	var out struct {
		Success bool   `json:"success"`
		Text    string `json:"text"`
	}
	if err := a.doJSON(req, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("transcription rejected")
	}
	return out.Text, nil
}

// RequestUpload sube el archivo elegido y devuelve la referencia staged.
func (a *API) RequestUpload(ctx context.Context, filename string, content []byte) (domain.Attachment, error) {
	body, contentType, err := multipartFile("file", filename, content)
	if err != nil {
		return domain.Attachment{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/upload", body)
	if err != nil {
		return domain.Attachment{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var out struct {
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		Filepath string `json:"filepath"`
		Filename string `json:"filename"`
		Type     string `json:"type"`
	}
	if err := a.doJSON(req, &out); err != nil {
		return domain.Attachment{}, err
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "upload rejected"
		}
		return domain.Attachment{}, fmt.Errorf("%s", out.Error)
	}
	return domain.Attachment{
		Filepath:  out.Filepath,
		Filename:  out.Filename,
		MediaType: domain.MediaType(out.Type),
	}, nil
}

func (a *API) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	return a.doJSON(req, out)
}

func (a *API) doJSON(req *http.Request, out interface{}) error {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api error: %s", apiErr.Error)
		}
		return fmt.Errorf("api error: status=%d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func multipartFile(field, filename string, content []byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}
