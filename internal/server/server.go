// Package server exposes training and evaluation over HTTP, including an
// SSE stream of per-epoch progress. It is a thin adapter around the nn
// core: every request trains on a network it exclusively owns, and models
// enter the shared store only after training finishes.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/neuralgo-ml/neuralgo/examples"
	"github.com/neuralgo-ml/neuralgo/nn"
)

type storedModel struct {
	network      *nn.Network
	example      string
	epochs       int
	learningRate float64
	finalLoss    float64
}

// Server holds the in-memory model store and the HTTP routes.
type Server struct {
	mu     sync.Mutex
	models map[string]*storedModel
	router chi.Router
}

// New builds a server with an empty model store.
func New() *Server {
	s := &Server{models: make(map[string]*storedModel)}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/examples", s.handleListExamples)
		r.Post("/train", s.handleTrain)
		r.Post("/train/stream", s.handleTrainStream)
		r.Post("/eval", s.handleEval)
		r.Get("/models/{id}", s.handleModelInfo)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

type exampleInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Architecture []int  `json:"architecture"`
}

type trainRequest struct {
	Example      string  `json:"example"`
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
}

type trainResponse struct {
	ModelID string  `json:"model_id"`
	Example string  `json:"example"`
	Epochs  int     `json:"epochs"`
	Loss    float64 `json:"loss"`
}

type evalRequest struct {
	ModelID string    `json:"model_id"`
	Input   []float64 `json:"input"`
}

type evalResponse struct {
	Output []float64 `json:"output"`
}

type modelInfoResponse struct {
	ModelID         string  `json:"model_id"`
	Example         string  `json:"example"`
	Architecture    []int   `json:"architecture"`
	Epochs          int     `json:"epochs"`
	LearningRate    float64 `json:"learning_rate"`
	Loss            float64 `json:"loss"`
	TotalParameters int     `json:"total_parameters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListExamples(w http.ResponseWriter, _ *http.Request) {
	infos := make([]exampleInfo, 0, len(examples.List()))
	for _, name := range examples.List() {
		ex, _ := examples.Get(name)
		infos = append(infos, exampleInfo{
			Name:         ex.Name,
			Description:  ex.Description,
			Architecture: ex.Architecture,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) decodeTrainRequest(w http.ResponseWriter, r *http.Request) (trainRequest, examples.Example, bool) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return trainRequest{}, examples.Example{}, false
	}
	ex, ok := examples.Get(req.Example)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown example: %s", req.Example))
		return trainRequest{}, examples.Example{}, false
	}
	if req.Epochs <= 0 {
		req.Epochs = ex.Epochs
	}
	if req.LearningRate <= 0 {
		req.LearningRate = ex.LearningRate
	}
	return req, ex, true
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	req, ex, ok := s.decodeTrainRequest(w, r)
	if !ok {
		return
	}

	network, err := nn.NewNetwork(ex.Architecture, nn.Sigmoid, req.LearningRate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	controller := nn.NewTrainingController(network, nn.TrainingConfig{
		Epochs:      req.Epochs,
		ExampleName: ex.Name,
	})
	var lastLoss float64
	controller.AddCallback(nn.CallbackFunc(func(res nn.EpochResult) error {
		lastLoss = res.Loss
		return nil
	}))

	if err := controller.Train(ex.Inputs, ex.Targets); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := s.store(&storedModel{
		network:      controller.Network(),
		example:      ex.Name,
		epochs:       req.Epochs,
		learningRate: req.LearningRate,
		finalLoss:    lastLoss,
	})
	writeJSON(w, http.StatusOK, trainResponse{
		ModelID: id,
		Example: ex.Name,
		Epochs:  req.Epochs,
		Loss:    lastLoss,
	})
}

// handleTrainStream trains synchronously and streams one "epoch" SSE event
// per completed epoch, ending with a "done" event carrying the model id.
// A dropped client cancels training at the next epoch boundary.
func (s *Server) handleTrainStream(w http.ResponseWriter, r *http.Request) {
	req, ex, ok := s.decodeTrainRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	network, err := nn.NewNetwork(ex.Architecture, nn.Sigmoid, req.LearningRate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	controller := nn.NewTrainingController(network, nn.TrainingConfig{
		Epochs:      req.Epochs,
		ExampleName: ex.Name,
	})
	var lastLoss float64
	ctx := r.Context()
	controller.AddCallback(nn.CallbackFunc(func(res nn.EpochResult) error {
		select {
		case <-ctx.Done():
			return nn.ErrStopTraining
		default:
		}
		lastLoss = res.Loss
		payload, _ := json.Marshal(map[string]any{"epoch": res.Epoch, "loss": res.Loss})
		fmt.Fprintf(w, "event: epoch\ndata: %s\n\n", payload)
		flusher.Flush()
		return nil
	}))

	if err := controller.Train(ex.Inputs, ex.Targets); err != nil {
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
		flusher.Flush()
		return
	}
	if controller.State() == nn.StateInterrupted {
		return
	}

	id := s.store(&storedModel{
		network:      controller.Network(),
		example:      ex.Name,
		epochs:       req.Epochs,
		learningRate: req.LearningRate,
		finalLoss:    lastLoss,
	})
	payload, _ := json.Marshal(map[string]any{"model_id": id, "loss": lastLoss})
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
	flusher.Flush()
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req evalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	model, ok := s.models[req.ModelID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "model not found")
		return
	}

	if len(req.Input) != model.network.InputSize() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"invalid input dimensions: expected %d, got %d",
			model.network.InputSize(), len(req.Input)))
		return
	}

	output, err := model.network.Evaluate(nn.ColumnVector(req.Input))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := output.Data()
	writeJSON(w, http.StatusOK, evalResponse{Output: out})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	model, ok := s.models[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "model not found")
		return
	}

	writeJSON(w, http.StatusOK, modelInfoResponse{
		ModelID:         id,
		Example:         model.example,
		Architecture:    model.network.Architecture(),
		Epochs:          model.epochs,
		LearningRate:    model.learningRate,
		Loss:            model.finalLoss,
		TotalParameters: model.network.NumParameters(),
	})
}

func (s *Server) store(model *storedModel) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.models[id] = model
	s.mu.Unlock()
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
