package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/export"
	"github.com/saker-ai/armscript/internal/session"
	"github.com/saker-ai/armscript/internal/storage"
)

type testResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func dial(t *testing.T) (*websocket.Conn, *session.Manager, string) {
	t.Helper()
	dataDir := t.TempDir()
	manager := session.NewManager(session.Options{DataDir: dataDir}, export.New(export.DefaultPreamble(), export.FormatJSON), zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(NewHandler(zap.NewNop(), manager).Handle))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn, manager, dataDir
}

func call(t *testing.T, conn *websocket.Conn, id int, method string, params string) testResponse {
	t.Helper()
	msg := `{"jsonrpc":"2.0","id":` + strconv.Itoa(id) + `,"method":"` + method + `"`
	if params != "" {
		msg += `,"params":` + params
	}
	msg += `}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp testResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(resp.ID) != strconv.Itoa(id) {
		t.Fatalf("response id=%s, want %d", resp.ID, id)
	}
	return resp
}

func TestToolsListAndCall(t *testing.T) {
	conn, manager, _ := dial(t)
	defer conn.Close()

	resp := call(t, conn, 1, "initialize", `{}`)
	if resp.Error != nil {
		t.Fatalf("initialize error: %+v", resp.Error)
	}

	resp = call(t, conn, 2, "tools/list", "")
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &list); err != nil || len(list.Tools) != 3 {
		t.Fatalf("tools/list result=%s err=%v", resp.Result, err)
	}

	resp = call(t, conn, 3, "tools/call", `{"name":"move_cartesian","arguments":{"z":5}}`)
	var result struct {
		Content []toolContent `json:"content"`
		IsError bool          `json:"isError"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode tool result: %v", err)
	}
	if result.IsError || len(result.Content) != 1 || result.Content[0].Text != "bot.arm.set_ee_cartesian_trajectory(x=0.0, y=0.0, z=5.0)" {
		t.Fatalf("tool result=%s", resp.Result)
	}

	resp = call(t, conn, 4, "tools/call", `{"name":"control_gripper","arguments":{}}`)
	if err := json.Unmarshal(resp.Result, &result); err != nil || !result.IsError {
		t.Fatalf("invalid arguments result=%s err=%v", resp.Result, err)
	}

	resp = call(t, conn, 5, "tools/call", `{"name":"teleport"}`)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("unknown tool error=%+v, want invalid params", resp.Error)
	}

	resp = call(t, conn, 6, "session/snapshot", "")
	var snap struct {
		Structured []json.RawMessage `json:"structured"`
	}
	if err := json.Unmarshal(resp.Result, &snap); err != nil || len(snap.Structured) != 1 {
		t.Fatalf("snapshot=%s err=%v", resp.Result, err)
	}

	if got := len(manager.Active()); got != 1 {
		t.Fatalf("active=%d, want 1", got)
	}
}

func TestUnknownMethodAndBadJSON(t *testing.T) {
	conn, _, _ := dial(t)
	defer conn.Close()

	resp := call(t, conn, 1, "resources/list", "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("error=%+v, want method not found", resp.Error)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var bad testResponse
	if err := conn.ReadJSON(&bad); err != nil {
		t.Fatalf("read: %v", err)
	}
	if bad.Error == nil || bad.Error.Code != codeParseError {
		t.Fatalf("error=%+v, want parse error", bad.Error)
	}
}

func TestDisconnectClosesAndExports(t *testing.T) {
	conn, manager, dataDir := dial(t)

	call(t, conn, 1, "tools/call", `{"name":"rotate_joint","arguments":{"joint_name":"waist","degrees":180}}`)
	ids := manager.Active()
	if len(ids) != 1 {
		t.Fatalf("active=%v, want one session", ids)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		meta, err := storage.GetMeta(dataDir, ids[0])
		if err == nil && meta.Closed {
			if meta.Commands != 1 {
				t.Fatalf("commands=%d, want 1", meta.Commands)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session not closed after disconnect: %+v %v", meta, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	path, err := storage.ArtifactPath(dataDir, ids[0], export.DefaultExecutablePath)
	if err != nil {
		t.Fatalf("ArtifactPath error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if !strings.HasSuffix(string(data), "bot.arm.set_single_joint_position(joint_name='waist', position=3.141592653589793)\n") {
		t.Fatalf("script=%q", data)
	}
}
