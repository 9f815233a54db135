package client

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/coldb/pkg/api"
	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/manager"
	"github.com/cuemby/coldb/pkg/types"
)

func startTestServer(t *testing.T) (socketPath string) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SocketPath = filepath.Join(cfg.DataDir, "coldb.sock")
	cfg.SnapshotIntervalSeconds = 0

	mgr, err := manager.New(cfg)
	if err != nil {
		t.Fatalf("manager.New() error = %v", err)
	}

	srv := api.NewServer(mgr, cfg)
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() {
		_ = srv.Stop()
		_ = mgr.Close()
	})

	// Serve's listener is created synchronously before Accept; give the
	// goroutine a moment to reach it before the first Dial.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c, err := Dial(cfg.SocketPath); err == nil {
			c.Close()
			return cfg.SocketPath
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server never came up on %s", cfg.SocketPath)
	return ""
}

func TestClient_CreateInsertSelect(t *testing.T) {
	socketPath := startTestServer(t)

	c, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if err := c.CreateDatabase("mydb"); err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if err := c.CreateTable("t", "mydb", 4); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := c.CreateColumn("c", "mydb.t"); err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	for _, v := range []int32{1, 2, 3} {
		if err := c.Insert("mydb.t", v); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	reply, err := c.Exec(`pos=select(mydb.t.c,null,null)`)
	if err != nil {
		t.Fatalf("Exec(select) error = %v", err)
	}
	if reply.Status.String() != "OK_DONE" {
		t.Fatalf("select status = %v", reply.Status)
	}

	reply, err = c.Exec(`val=fetch(mydb.t.c,pos)`)
	if err != nil {
		t.Fatalf("Exec(fetch) error = %v", err)
	}
	if reply.Status.String() != "OK_DONE" {
		t.Fatalf("fetch status = %v", reply.Status)
	}

	reply, err = c.Exec("print(pos,val)")
	if err != nil {
		t.Fatalf("Exec(print) error = %v", err)
	}
	if len(reply.Body) != 3 {
		t.Fatalf("print rows = %d, want 3: %v", len(reply.Body), reply.Body)
	}
}

func TestClient_ErrorReplyBecomesStatusError(t *testing.T) {
	socketPath := startTestServer(t)

	c, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	err = c.CreateColumn("c", "nodb.notbl")
	if err == nil {
		t.Fatal("expected an error for a missing database")
	}
	var se *types.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T (%v), want *types.StatusError", err, err)
	}
}

func TestClient_SnapshotAndShutdown(t *testing.T) {
	socketPath := startTestServer(t)

	c, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if err := c.CreateDatabase("mydb"); err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if err := c.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
