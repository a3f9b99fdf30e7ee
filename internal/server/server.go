// server.go wires the HTTP handler: asset file serving with a traversal
// guard, the JSON API endpoints, CORS, and request logging.
package server

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// VersionInfo is the payload of the version endpoint.
type VersionInfo struct {
	Project     string `json:"project"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// AssetInfo describes one entry in the asset listing.
type AssetInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Server is the assetd HTTP service.
type Server struct {
	settings Settings
	version  model.Version
	logger   *slog.Logger
}

// New creates a Server. The version is the released project version the
// service reports; it is read once at startup and never changes while the
// process runs.
func New(settings Settings, version model.Version, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{settings: settings, version: version, logger: logger}
}

// Handler builds the full HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /assets/{asset...}", s.handleAsset)
	mux.HandleFunc("GET "+s.settings.APIPrefix+"/version", s.handleVersion)
	mux.HandleFunc("GET "+s.settings.APIPrefix+"/assets", s.handleListAssets)

	// The bare root redirects into the API rather than 404ing.
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.settings.APIPrefix+"/version", http.StatusTemporaryRedirect)
	})

	return s.withLogging(s.withCORS(mux))
}

// ListenAndServe runs the service until the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("assetd listening",
		"addr", s.settings.Addr,
		"environment", s.settings.Environment,
		"version", s.version.String())
	return http.ListenAndServe(s.settings.Addr, s.Handler())
}

// handleAsset serves one file from the assets directory.
//
// The requested path is resolved inside AssetsDir and rejected if it
// escapes it or names anything but a regular file. The check runs on the
// cleaned absolute path, so ".." segments and symlink-free traversal
// tricks collapse before the comparison.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + r.PathValue("asset"))
	full := filepath.Join(s.settings.AssetsDir, filepath.FromSlash(rel))

	root, err := filepath.Abs(s.settings.AssetsDir)
	if err != nil {
		http.Error(w, "asset root unavailable", http.StatusInternalServerError)
		return
	}
	abs, err := filepath.Abs(full)
	if err != nil || abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, abs)
}

// handleVersion reports the released project version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, OK(VersionInfo{
		Project:     s.settings.ProjectName,
		Version:     s.version.String(),
		Environment: s.settings.Environment,
	}))
}

// handleListAssets returns a paginated listing of the files below the
// assets directory, sorted by path for stable pages.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	params := PageParams{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	}.Normalize()

	var assets []AssetInfo
	root := s.settings.AssetsDir
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		assets = append(assets, AssetInfo{Path: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		s.logger.Error("asset listing failed", "error", err)
		http.Error(w, "asset listing failed", http.StatusInternalServerError)
		return
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })

	page := Page[AssetInfo]{
		Items:     pageSlice(assets, params),
		Page:      params.Page,
		PageSize:  params.PageSize,
		ItemCount: len(assets),
	}
	writeJSON(w, OK(page))
}

// pageSlice cuts one page out of the full collection.
func pageSlice[T any](items []T, params PageParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed; Normalize supplies the defaults.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

// writeJSON renders a JSON response with the standard headers.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful can be sent anymore.
		slog.Default().Error("response encoding failed", "error", err)
	}
}

// withCORS allows configured cross-origin callers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, origin := range s.settings.AllCORSOrigins() {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[strings.TrimRight(origin, "/")] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs one structured line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
