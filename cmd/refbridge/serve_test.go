// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/refbridge/refbridge/internal/issue"
	"github.com/refbridge/refbridge/internal/resolveserver"
)

func TestServe_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.app()
	s, err := app.openSession(context.Background(), modelFile, "")
	if err != nil {
		t.Fatalf("openSession() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = app.serve(ctx, s, "127.0.0.1:0", "")

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue != issue.ResolverServerFailedId {
		t.Fatalf("serve() error = %v, want an ActionableError for the server", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("serve() error = %v, want context.Canceled in the chain", err)
	}
}

func TestServe_UntilCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	app := f.app()
	s, err := app.openSession(context.Background(), modelFile, "")
	if err != nil {
		t.Fatalf("openSession() error = %v", err)
	}

	stdout := &lockedBuffer{}
	app.stdout = stdout

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, s, "127.0.0.1:0", "secret") }()

	url := waitForServerURL(t, stdout)
	client := resolveserver.NewClient(url, "secret")
	resp, err := client.Resolve(context.Background(), "DevExpress.Utils.v24.2")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resp.Path != utilsPath {
		t.Errorf("Resolve() path = %q, want %q", resp.Path, utilsPath)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}

	if client.IsAvailable(context.Background()) {
		t.Error("server still answers after serve() returned")
	}
	if !strings.Contains(stdout.String(), "export "+resolveserver.EnvToken+"=secret") {
		t.Errorf("stdout lacks the token export:\n%s", stdout.String())
	}
}

// lockedBuffer is a bytes.Buffer safe for a writer and a poller.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitForServerURL polls the serve output for the announced URL.
func waitForServerURL(t *testing.T, out *lockedBuffer) string {
	t.Helper()

	prefix := "export " + resolveserver.EnvAddr + "="
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		for line := range strings.SplitSeq(out.String(), "\n") {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
				return rest
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server URL not announced:\n%s", out.String())
	return ""
}
