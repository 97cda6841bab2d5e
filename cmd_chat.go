package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	wsadapter "github.com/satriahrh/cocoa-fruit/assistant/adapters/websocket"
	"github.com/spf13/cobra"
)

var chatURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running assistant server from the terminal",
	Long: `Opens a websocket session against "assistant serve".

Commands:
  /history  show the weather history
  /cancel   cancel the career planning interview
  /clear    forget the conversation
  /quit     leave (or Ctrl+D)

Press Ctrl+C while a reply is streaming to stop it.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "ws://localhost:8080/ws", "websocket endpoint")
}

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Bold(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a8699")).Italic(true)
)

var errQuit = errors.New("quit")

// parseInput turns a line typed by the user into a frame. An empty frame type
// means there is nothing to send.
func parseInput(line string) (wsadapter.InboundFrame, error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return wsadapter.InboundFrame{}, nil
	case "/quit", "/exit", "exit":
		return wsadapter.InboundFrame{}, errQuit
	case "/history":
		return wsadapter.InboundFrame{Type: wsadapter.FrameHistory}, nil
	case "/cancel":
		return wsadapter.InboundFrame{Type: wsadapter.FrameCancel}, nil
	case "/clear":
		return wsadapter.InboundFrame{Type: wsadapter.FrameClear}, nil
	}
	if strings.HasPrefix(line, "/") {
		return wsadapter.InboundFrame{}, fmt.Errorf("unknown command %s", strings.Fields(line)[0])
	}
	return wsadapter.InboundFrame{Type: wsadapter.FrameMessage, Text: line}, nil
}

// replyDone reports whether frame ends the reply to a request of type sent.
func replyDone(sent string, frame wsadapter.OutboundFrame) bool {
	if frame.Type == wsadapter.FrameError {
		return true
	}
	switch sent {
	case wsadapter.FrameMessage:
		return frame.Type == wsadapter.FrameDone
	case wsadapter.FrameHistory:
		return frame.Type == wsadapter.FrameHistory
	default:
		return frame.Type == wsadapter.FrameNotice
	}
}

// renderFrame returns what the terminal shows for frame.
func renderFrame(frame wsadapter.OutboundFrame) string {
	switch frame.Type {
	case wsadapter.FrameDelta:
		return frame.Text
	case wsadapter.FrameDone:
		var tags []string
		if frame.Stopped {
			tags = append(tags, "stopped")
		}
		if frame.Progress != nil {
			tags = append(tags, fmt.Sprintf("interview %.0f%%", *frame.Progress*100))
		}
		if frame.Complete {
			tags = append(tags, "interview complete")
		}
		if len(tags) == 0 {
			return "\n"
		}
		return "\n" + mutedStyle.Render("["+strings.Join(tags, ", ")+"]") + "\n"
	case wsadapter.FrameNotice, wsadapter.FrameHistory:
		return noticeStyle.Render(frame.Text) + "\n"
	case wsadapter.FrameHistoryUpdated:
		if frame.Event == nil {
			return ""
		}
		if frame.Event.Cleared {
			return mutedStyle.Render("(weather history cleared)") + "\n"
		}
		return mutedStyle.Render(fmt.Sprintf("(weather history: %s ×%d)", frame.Event.City, frame.Event.QueryCount)) + "\n"
	case wsadapter.FrameError:
		return errorStyle.Render("error: "+frame.Text) + "\n"
	default:
		return ""
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, chatURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", chatURL, err)
	}
	defer conn.Close()

	frames := make(chan wsadapter.OutboundFrame, 64)
	go func() {
		defer close(frames)
		for {
			var frame wsadapter.OutboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	}()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, mutedStyle.Render("Connected to "+chatURL+". Type /quit to leave."))

	var scanErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		fmt.Fprint(out, promptStyle.Render("you ▸ "))
		line, err := nextLine(lines, interrupts)
		if errors.Is(err, io.EOF) {
			return scanErr
		}
		if errors.Is(err, errQuit) {
			fmt.Fprintln(out)
			return nil
		}
		frame, err := parseInput(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		if frame.Type == "" {
			continue
		}

		if err := conn.WriteJSON(frame); err != nil {
			return fmt.Errorf("sending: %w", err)
		}
		if frame.Type == wsadapter.FrameMessage {
			fmt.Fprint(out, assistantStyle.Render("assistant ▸ "))
		}
		if err := awaitReply(out, conn, frame.Type, frames, interrupts); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// nextLine waits for a line of input. Ctrl+C at the prompt quits.
func nextLine(lines <-chan string, interrupts <-chan os.Signal) (string, error) {
	select {
	case line, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-interrupts:
		return "", errQuit
	}
}

func awaitReply(out io.Writer, conn *websocket.Conn, sent string, frames <-chan wsadapter.OutboundFrame, interrupts <-chan os.Signal) error {
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return errors.New("connection closed by server")
			}
			fmt.Fprint(out, renderFrame(frame))
			if replyDone(sent, frame) {
				return nil
			}
		case <-interrupts:
			if sent != wsadapter.FrameMessage {
				return errQuit
			}
			if err := conn.WriteJSON(wsadapter.InboundFrame{Type: wsadapter.FrameStop}); err != nil {
				return fmt.Errorf("sending stop: %w", err)
			}
		}
	}
}
