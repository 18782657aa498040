package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftaudio/driftpad/pkg/engine"
	"github.com/driftaudio/driftpad/pkg/policy"
)

func testServerConfig(policyFile string) Config {
	ecfg := engine.DefaultConfig()
	ecfg.SampleRate = 8000
	ecfg.ChunkSamples = 2000
	ecfg.TempoBPM = 600
	ecfg.FadeInSeconds = 0.01
	return Config{PolicyFile: policyFile, Engine: ecfg}
}

func dialMusic(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/music"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func readBinary(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if mt == websocket.BinaryMessage {
			return data
		}
	}
}

func sendControl(t *testing.T, conn *websocket.Conn, typ string, value float64) {
	t.Helper()
	data, err := json.Marshal(controlMessage{Type: typ, Value: value})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(New(testServerConfig("")).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("healthz body %v", body)
	}
}

func TestMusicStreamsBinaryChunks(t *testing.T) {
	ts := httptest.NewServer(New(testServerConfig("")).Handler())
	defer ts.Close()

	conn := dialMusic(t, ts)
	for i := 0; i < 5; i++ {
		data := readBinary(t, conn)
		if len(data) != 2000*4 {
			t.Fatalf("chunk frame %d bytes, want %d", len(data), 2000*4)
		}
	}
}

func TestMusicAnnouncesWireFormat(t *testing.T) {
	ts := httptest.NewServer(New(testServerConfig("")).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/music"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	want := "audio/F32LE; rate=8000; channels=1"
	if got := resp.Header.Get("X-Audio-Format"); got != want {
		t.Fatalf("X-Audio-Format %q, want %q", got, want)
	}
}

func TestControlMessagesDoNotBreakStream(t *testing.T) {
	ts := httptest.NewServer(New(testServerConfig("")).Handler())
	defer ts.Close()

	conn := dialMusic(t, ts)
	readBinary(t, conn)

	sendControl(t, conn, "focus", 85)
	sendControl(t, conn, "volume", 0.5)
	sendControl(t, conn, "skip", 0)
	sendControl(t, conn, "profile", 0)
	sendControl(t, conn, "bogus", 1)

	for i := 0; i < 3; i++ {
		readBinary(t, conn)
	}
}

func TestStopClosesSessionAndPersistsPolicy(t *testing.T) {
	policyFile := filepath.Join(t.TempDir(), "policy.msgpack")
	ts := httptest.NewServer(New(testServerConfig(policyFile)).Handler())
	defer ts.Close()

	conn := dialMusic(t, ts)
	readBinary(t, conn)
	sendControl(t, conn, "stop", 0)

	// The server tears the connection down after saving the policy.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	st, ok, err := policy.LoadFile(policyFile)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("no policy snapshot written")
	}
	if len(st.Arms) != len(engine.DefaultConfig().Textures) {
		t.Fatalf("snapshot has %d arms, want %d", len(st.Arms), len(engine.DefaultConfig().Textures))
	}
}

func TestStalePolicySnapshotFallsBack(t *testing.T) {
	policyFile := filepath.Join(t.TempDir(), "policy.msgpack")
	stale := policy.State{Arms: make([]policy.Arm, 2)} // wrong arm count
	if err := policy.SaveFile(policyFile, stale); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(New(testServerConfig(policyFile)).Handler())
	defer ts.Close()

	conn := dialMusic(t, ts)
	if data := readBinary(t, conn); len(data) != 2000*4 {
		t.Fatalf("chunk frame %d bytes after stale snapshot", len(data))
	}
}
