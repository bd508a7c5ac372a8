package server

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"go.uber.org/zap"
)

const (
	imageWait = 2 * time.Second
	imagePoll = 50 * time.Millisecond
)

// Images serves fetched assets. A miss queues an immediate download and waits briefly for it.
func (s Server) Images() http.Handler {
	files := http.Dir(s.assetDir())
	fileServer := http.FileServer(files)

	exists := func(name string) bool {
		f, err := files.Open(name)
		if err != nil {
			return false
		}
		defer f.Close()
		info, err := f.Stat()
		return err == nil && !info.IsDir()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if name == "/" || exists(name) {
			fileServer.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		if err := s.manager.RequestAsset(ctx, strings.TrimPrefix(name, "/")); err != nil {
			writeErrorResponse(w, r, err)
			return
		}

		timeout := time.NewTimer(imageWait)
		defer timeout.Stop()
		ticker := time.NewTicker(imagePoll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timeout.C:
				logger.FromCtx(ctx).Debugw("asset not fetched in time", "name", name, zap.Duration("waited", imageWait))
				w.Header().Set("Retry-After", "1")
				writeResponse(w, http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: "asset is being fetched"})
				return
			case <-ticker.C:
				if exists(name) {
					fileServer.ServeHTTP(w, r)
					return
				}
			}
		}
	})
}
