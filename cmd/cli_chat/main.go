package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/client"
	"andse-chat/internal/domain"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", "http://localhost:8080", "base URL del servidor de chat")
	wsURL := flag.String("ws", "", "URL del websocket (default: derivada de -server)")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "bearer token de acceso")
	flag.Parse()

	if *wsURL == "" {
		derived := strings.Replace(*serverURL, "http", "ws", 1)
		*wsURL = derived + "/chat/ws"
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	logger := zap.NewExample()
	defer logger.Sync()

	api := client.NewAPI(*serverURL, *token)

	transport, err := client.DialWS(ctx, *wsURL, *token)
	if err != nil {
		log.Fatalf("conectar websocket: %v", err)
	}
	defer transport.Close()

	// Los eventos inbound se encolan acá y los aplica el loop principal,
	// único consumidor del estado del controller.
	events := make(chan chat.Event, 64)
	done := make(chan struct{})

	ctrl := client.NewController(logger, transport, client.Listener{
		OnTyping: func(_ string, typing bool) {
			if typing {
				fmt.Print("\n[assistant is typing]\n")
			}
		},
		OnChunk: func(_, chunk string) {
			fmt.Print(chunk)
		},
		OnResponse: func(_, _ string) {
			fmt.Println()
		},
		OnTitle: func(_, title string) {
			fmt.Printf("\n[session title: %s]\n", title)
		},
	})
	ctrl.SetConnected(true)

	go func() {
		defer close(done)
		if err := transport.ReadLoop(func(ev chat.Event) { events <- ev }); err != nil {
			logger.Debug("ws closed", zap.Error(err))
		}
	}()

	session, err := pickSession(ctx, reader, api)
	if err != nil {
		log.Fatalf("elegir sesión: %v", err)
	}
	if err := ctrl.Join(session.ID); err != nil {
		log.Fatalf("join: %v", err)
	}
	fmt.Printf("Sesión activa: %s (%s)\n", session.Title, session.ID)

	printHistory(ctx, api, session.ID)

	fmt.Println("Escribe tu mensaje. Comandos: /attach <ruta>, /quit")
	prompt(reader, ctrl, api, events, done)

	ctrl.SetConnected(false)
}

func prompt(reader *bufio.Reader, ctrl *client.Controller, api *client.API, events chan chat.Event, done chan struct{}) {
	filePipe := client.NewFilePipeline(zap.NewNop(), api, ctrl.Composer(), 0)

	for {
		drain(ctrl, events)

		fmt.Print("> ")
		lineCh := make(chan string, 1)
		go func() {
			line, _ := reader.ReadString('\n')
			lineCh <- line
		}()

		var line string
		reading := true
		for reading {
			select {
			case ev := <-events:
				ctrl.Apply(ev)
			case <-done:
				fmt.Println("\nconexión cerrada")
				return
			case line = <-lineCh:
				reading = false
			}
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "/quit":
			return

		case strings.HasPrefix(line, "/attach "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			content, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("no se pudo leer %s: %v\n", path, err)
				continue
			}
			if err := filePipe.Upload(context.Background(), path, content); err != nil {
				fmt.Printf("subida falló: %v\n", err)
				continue
			}
			fmt.Println("adjunto staged, se envía con el próximo mensaje")

		case line != "":
			ctrl.Composer().SetText(line)
			if err := ctrl.Send(); err != nil {
				if errors.Is(err, chat.ErrEmptyMessage) {
					continue
				}
				fmt.Printf("enviar falló: %v\n", err)
			}
		}
	}
}

// drain aplica los eventos pendientes sin bloquear.
func drain(ctrl *client.Controller, events chan chat.Event) {
	for {
		select {
		case ev := <-events:
			ctrl.Apply(ev)
		default:
			return
		}
	}
}

func pickSession(ctx context.Context, reader *bufio.Reader, api *client.API) (domain.Session, error) {
	sessions := api.ListSessions(ctx)
	if len(sessions) == 0 {
		fmt.Println("No hay sesiones, creando una nueva.")
		return api.NewSession(ctx)
	}

	fmt.Println("Sesiones disponibles:")
	for i, s := range sessions {
		fmt.Printf("[%d] %s (%d mensajes)\n", i+1, s.Title, s.MessageCount)
	}
	fmt.Println("[N] Crear nueva sesión")
	fmt.Print("Selecciona una sesión: ")

	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)
	if strings.EqualFold(choice, "n") || choice == "" {
		return api.NewSession(ctx)
	}

	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(sessions) {
		return domain.Session{}, fmt.Errorf("selección inválida: %q", choice)
	}
	return sessions[idx-1], nil
}

func printHistory(ctx context.Context, api *client.API, sessionID string) {
	messages, err := api.History(ctx, sessionID)
	if err != nil {
		fmt.Printf("no se pudo cargar la historia: %v\n", err)
		return
	}
	for _, m := range messages {
		fmt.Printf("[%s] %s\n", m.Sender, m.Content)
	}
}
