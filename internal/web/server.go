package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Svetozar-Technologies/LocalPDF/internal/compressor"
	"github.com/Svetozar-Technologies/LocalPDF/internal/config"
	"github.com/Svetozar-Technologies/LocalPDF/internal/document"
	"github.com/Svetozar-Technologies/LocalPDF/internal/history"
	"github.com/Svetozar-Technologies/LocalPDF/internal/imagecodec"
	"github.com/Svetozar-Technologies/LocalPDF/internal/pdfinfo"
)

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex
	history    *history.Store

	// Current operation state
	operationMutex sync.Mutex
	isRunning      bool
	cancelOp       context.CancelFunc
	lastResult     *compressor.CompressionResult
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CompressRequest struct {
	InputPath   string  `json:"input_path"`
	OutputPath  string  `json:"output_path,omitempty"`
	TargetBytes int64   `json:"target_bytes,omitempty"`
	TargetMB    float64 `json:"target_mb,omitempty"`
}

type DirectoryInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tool, any origin may connect
			},
		},
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, log)
		if err != nil {
			log.Warnf("History disabled: %v", err)
		} else {
			s.history = store
		}
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/cancel", s.handleCancel).Methods("POST")
	api.HandleFunc("/info", s.handleInfo).Methods("GET")
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/directories", s.handleListDirectories).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Main page
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Web.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Web.ReadTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Web.IdleTimeoutSec) * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.operationMutex.Lock()
	if s.cancelOp != nil {
		s.cancelOp()
	}
	s.operationMutex.Unlock()

	if s.history != nil {
		defer s.history.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, "web/templates/index.html")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.Lock()
	running := s.isRunning
	last := s.lastResult
	s.operationMutex.Unlock()

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":     running,
			"last_result": last,
		},
	})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.InputPath == "" {
		s.writeError(w, "input_path is required", http.StatusBadRequest)
		return
	}
	target := req.TargetBytes
	if target == 0 && req.TargetMB > 0 {
		target = int64(req.TargetMB * 1024 * 1024)
	}
	if target <= 0 {
		s.writeError(w, "target size is required", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(req.InputPath); os.IsNotExist(err) {
		s.writeError(w, "Input file does not exist", http.StatusBadRequest)
		return
	}
	output := req.OutputPath
	if output == "" {
		output = pdfinfo.CompressedOutputPath(req.InputPath, s.cfg.Output.Suffix)
	}

	// Only one compression may run at a time.
	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.isRunning = true
	s.cancelOp = cancel
	s.operationMutex.Unlock()

	go s.runCompressAsync(ctx, compressor.CompressionParams{
		InputPath:   req.InputPath,
		OutputPath:  output,
		TargetBytes: target,
	})

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Compression started",
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.Lock()
	running := s.isRunning
	if running && s.cancelOp != nil {
		s.cancelOp()
	}
	s.operationMutex.Unlock()

	if !running {
		s.writeJSON(w, APIResponse{
			Success: true,
			Message: "No operation in progress",
		})
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Cancellation requested",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, "path is required", http.StatusBadRequest)
		return
	}

	report, err := pdfinfo.Inspect(document.NewStore(), path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to inspect file: %v", err), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, "History is disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.history.Recent(limit)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read history: %v", err), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    records,
	})
}

func (s *Server) handleListDirectories(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	// Security check - prevent directory traversal
	path = filepath.Clean(path)
	if strings.Contains(path, "..") {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	var listing []DirectoryInfo
	for _, entry := range entries {
		// The picker only needs directories and PDF files.
		if !entry.IsDir() && !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		fullPath := filepath.Join(path, entry.Name())
		listing = append(listing, DirectoryInfo{
			Path:         fullPath,
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    listing,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	// Remove client on disconnect
	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (s *Server) runCompressAsync(ctx context.Context, params compressor.CompressionParams) {
	s.broadcastWSMessage("compress_started", map[string]interface{}{
		"input_path":   params.InputPath,
		"output_path":  params.OutputPath,
		"target_bytes": params.TargetBytes,
	})

	params.Progress = func(percent int, message string) {
		s.broadcastWSMessage("progress", map[string]interface{}{
			"percent": percent,
			"message": message,
		})
	}

	engine := compressor.NewEngine(document.NewStore(), imagecodec.New(), s.cfg.Compression, s.log)
	res, err := engine.CompressToTarget(ctx, params)

	s.operationMutex.Lock()
	s.isRunning = false
	s.cancelOp = nil
	s.lastResult = res
	s.operationMutex.Unlock()

	if s.history != nil {
		if herr := s.history.Record(res); herr != nil {
			s.log.Warnf("Failed to record history entry: %v", herr)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		s.broadcastWSMessage("compress_cancelled", map[string]interface{}{
			"message": "Compression cancelled by user",
		})
	case err != nil:
		s.broadcastWSMessage("compress_error", map[string]interface{}{
			"error":  err.Error(),
			"result": res,
		})
	default:
		s.broadcastWSMessage("compress_completed", map[string]interface{}{
			"result": res,
		})
	}
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		err := conn.WriteMessage(websocket.TextMessage, msgBytes)
		if err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			// Remove failed connection
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
