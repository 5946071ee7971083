package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/siege-picker/internal/hub"
	"github.com/DoyleJ11/siege-picker/internal/kv"
	"github.com/DoyleJ11/siege-picker/internal/operator"
	"github.com/DoyleJ11/siege-picker/internal/profile"
	"github.com/DoyleJ11/siege-picker/internal/types"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, profileCode string) (*websocket.Conn, context.Context) {
	t.Helper()
	c := operator.NewCatalog([]operator.Operator{
		{ID: "ash", Role: operator.RoleAttacker},
		{ID: "rook", Role: operator.RoleDefender},
	})
	h := hub.NewHub(context.Background(), profile.Deps{Store: kv.NewMemory(), Catalog: c})
	srv := httptest.NewServer(Handler(h, zap.NewNop()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?profile=" + profileCode
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "done")
		srv.Close()
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		cancel()
	})
	return conn, ctx
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, b))
}

func recv(t *testing.T, ctx context.Context, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	_, b, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(b, &msg))
	return msg
}

func TestHandler_JoinThenToggleBroadcasts(t *testing.T) {
	conn, ctx := dial(t, "abc123")

	first := recv(t, ctx, conn)
	require.Equal(t, "StateSnapshot", first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, "ABC123", first.State.Profile)
	assert.Equal(t, 0, first.State.Version)

	send(t, ctx, conn, types.ClientMessage{Type: "Toggle", OperatorID: "ash"})
	next := recv(t, ctx, conn)
	require.Equal(t, "StateSnapshot", next.Type)
	assert.Equal(t, 1, next.State.Version)
	assert.Equal(t, []string{"ash"}, next.State.Owned)
}

func TestHandler_ErrorsGoToSender(t *testing.T) {
	conn, ctx := dial(t, "ABC123")
	_ = recv(t, ctx, conn)

	send(t, ctx, conn, types.ClientMessage{Type: "Teleport"})
	msg := recv(t, ctx, conn)
	assert.Equal(t, "Error", msg.Type)
	assert.Equal(t, "unknown type", msg.Error)

	send(t, ctx, conn, types.ClientMessage{Type: "Import", Owned: json.RawMessage(`{"ash":1}`)})
	msg = recv(t, ctx, conn)
	assert.Equal(t, "Error", msg.Type)
	assert.Contains(t, msg.Error, "invalid ownership format")

	send(t, ctx, conn, types.ClientMessage{Type: "RandomLineup", StartingSide: "Attack"})
	msg = recv(t, ctx, conn)
	assert.Equal(t, "Error", msg.Type)
	assert.Contains(t, msg.Error, "not enough owned operators")
}

func TestToProfileCommand(t *testing.T) {
	cmd, err := toProfileCommand(types.ClientMessage{Type: "SetTheme", Theme: "Light"})
	require.NoError(t, err)
	assert.Equal(t, profile.Command{Type: profile.CmdSetTheme, Theme: "light"}, cmd)

	_, err = toProfileCommand(types.ClientMessage{Type: "SetTheme", Theme: "sepia"})
	assert.Error(t, err)

	cmd, err = toProfileCommand(types.ClientMessage{Type: "Remove", OperatorID: "rook"})
	require.NoError(t, err)
	assert.Equal(t, profile.CmdRemove, cmd.Type)
	assert.Equal(t, "rook", cmd.OperatorID)
}
