package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/siege-picker/internal/hub"
	"github.com/DoyleJ11/siege-picker/internal/lineup"
	"github.com/DoyleJ11/siege-picker/internal/profile"
	"github.com/DoyleJ11/siege-picker/internal/theme"
	"github.com/DoyleJ11/siege-picker/internal/types"
	pub "github.com/DoyleJ11/siege-picker/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgRandomLineup = "RandomLineup"

var errUnknownType = errors.New("unknown type")

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := hub.NormalizeCode(r.URL.Query().Get("profile"))
		if err != nil {
			http.Error(w, "missing or invalid profile", http.StatusBadRequest)
			return
		}

		p, err := h.Ensure(r.Context(), code)
		if err != nil {
			http.Error(w, "profile unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan profile.Snapshot, 8)
		clientID := uuid.NewString()
		clog := log.With(zap.String("profile", code), zap.String("client", clientID))
		clog.Debug("client connected")

		select {
		case p.Inbox() <- profile.Join{ClientID: clientID, Outbox: out}:
		case <-p.Done():
			return
		}
		defer func() {
			select {
			case p.Inbox() <- profile.Leave{ClientID: clientID}:
			case <-p.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						return
					}
					state := pub.FromSnapshot(code, snap)
					write(writeCtx, conn, types.ServerMessage{Type: "StateSnapshot", State: &state})
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Debug("client disconnected")
					return
				}
				// Otherwise, just exit (profile.Leave in defer):
				clog.Debug("read failed", zap.Error(err))
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			if cm.Type == msgRandomLineup {
				write(r.Context(), conn, rollLineup(r.Context(), p, cm))
				continue
			}

			cmd, err := toProfileCommand(cm)
			if err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: err.Error()})
				continue
			}

			// Successful commands show up as a broadcast snapshot.
			if err := p.Do(r.Context(), cmd); err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: err.Error()})
			}
		}
	}
}

func rollLineup(ctx context.Context, p *profile.Profile, cm types.ClientMessage) types.ServerMessage {
	start, err := lineup.ParseSide(cm.StartingSide)
	if err != nil {
		return types.ServerMessage{Type: "Error", Error: err.Error()}
	}
	slots, err := p.RollLineup(ctx, start)
	if err != nil {
		return types.ServerMessage{Type: "Error", Error: err.Error()}
	}
	l := pub.FromSlots(start, slots)
	return types.ServerMessage{Type: "Lineup", Lineup: &l}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func toProfileCommand(m types.ClientMessage) (profile.Command, error) {
	switch profile.CommandType(m.Type) {
	case profile.CmdToggle, profile.CmdAdd, profile.CmdRemove:
		return profile.Command{Type: profile.CommandType(m.Type), OperatorID: m.OperatorID}, nil
	case profile.CmdSelectAll, profile.CmdDeselectAll:
		return profile.Command{Type: profile.CommandType(m.Type)}, nil
	case profile.CmdImport:
		return profile.Command{Type: profile.CmdImport, Payload: m.Owned}, nil
	case profile.CmdSetTheme:
		t, err := theme.Parse(m.Theme)
		if err != nil {
			return profile.Command{}, err
		}
		return profile.Command{Type: profile.CmdSetTheme, Theme: t}, nil
	default:
		return profile.Command{}, errUnknownType
	}
}
