package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sert-editor/sert/pkg/logging"
)

// NewHandler serves the front-end directory at / and the hub at /bridge.
func NewHandler(hub *Hub, frontendDir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/bridge", hub)
	mux.Handle("/", http.FileServer(http.Dir(frontendDir)))
	return mux
}

// Serve runs handler on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *logging.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.InfoCat(logging.CatBridge, "Serving front end on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked WebSocket connections are not tracked by Shutdown.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
