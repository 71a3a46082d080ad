package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opst/datapod/cmd/datapod/server"
)

func TestServer(t *testing.T) {
	course, inputs := fixture(t)
	testee := server.New(course, inputs, server.Silent(), server.WithLogLevel("off"))
	svr := httptest.NewServer(testee.Handler())
	defer svr.Close()

	theory := func(path string, status int) func(*testing.T) {
		return func(t *testing.T) {
			resp, err := http.Get(svr.URL + path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != status {
				t.Errorf("%s: want status %d, got %d", path, status, resp.StatusCode)
			}
			body := map[string]any{}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Errorf("%s: response is not json object: %v", path, err)
			}
		}
	}

	t.Run("full course", theory("/api/full_course", http.StatusOK))
	t.Run("dish", theory("/api/full_course/cleaned", http.StatusOK))
	t.Run("unknown dish", theory("/api/full_course/unknown", http.StatusNotFound))
	t.Run("ingredients", theory("/api/ingredients", http.StatusOK))
	t.Run("unknown path", theory("/api/unknown", http.StatusNotFound))
}

func TestServer_Start(t *testing.T) {
	t.Run("it stops when context is done", func(t *testing.T) {
		course, inputs := fixture(t)
		testee := server.New(
			course, inputs,
			server.Silent(), server.WithLogLevel("off"), server.WithGracefulPeriod(time.Second),
		)

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan error, 1)
		go func() { stopped <- testee.Start(ctx, "127.0.0.1:0") }()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-stopped:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server does not stop")
		}
	})

	t.Run("it tells when it cannot listen", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer l.Close()

		course, inputs := fixture(t)
		testee := server.New(course, inputs, server.Silent(), server.WithLogLevel("off"))
		if err := testee.Start(context.Background(), l.Addr().String()); err == nil {
			t.Error("it should fail")
		}
	})
}
