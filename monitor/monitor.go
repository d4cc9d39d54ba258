// Package monitor is an HTTP front end that posts interrupts to a running
// HYPO machine, and the client that sends them.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/kernel"
	"github.com/ezrec/hypo/machine"
)

const INTERRUPT_PATH = "/interrupt"

// Poster queues interrupts for the kernel.
type Poster interface {
	Post(ctx context.Context, intr kernel.Interrupt) error
}

// Request is the JSON body of an interrupt request.
type Request struct {
	Id       int           `json:"id"`
	Program  string        `json:"program,omitempty"`
	Priority *machine.Word `json:"priority,omitempty"`
	Pid      machine.Word  `json:"pid,omitempty"`
	Char     machine.Word  `json:"char,omitempty"`
}

// Response is the JSON body of an interrupt reply.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewRequest converts an interrupt to its request body.
func NewRequest(intr kernel.Interrupt) (req Request) {
	req = Request{
		Id:      int(intr.Id),
		Program: intr.Program,
		Pid:     intr.Pid,
		Char:    intr.Char,
	}
	if intr.Id == kernel.INT_RUN_PROGRAM {
		priority := intr.Priority
		req.Priority = &priority
	}
	return
}

// Interrupt converts the request to an interrupt. A run request without a
// priority gets defaultPriority.
func (req *Request) Interrupt(defaultPriority machine.Word) (intr kernel.Interrupt, err error) {
	intr = kernel.Interrupt{
		Id:      kernel.InterruptId(req.Id),
		Program: req.Program,
		Pid:     req.Pid,
		Char:    req.Char,
	}

	switch intr.Id {
	case kernel.INT_NONE, kernel.INT_SHUTDOWN, kernel.INT_INPUT_DONE, kernel.INT_OUTPUT_DONE:
	case kernel.INT_RUN_PROGRAM:
		if len(req.Program) == 0 {
			err = ErrProgramMissing
			return
		}
		intr.Priority = defaultPriority
		if req.Priority != nil {
			intr.Priority = *req.Priority
		}
	default:
		err = kernel.ErrInterruptInvalid(req.Id)
	}

	return
}

// Handler accepts POST /interrupt requests.
type Handler struct {
	Verbose         bool
	Poster          Poster
	DefaultPriority machine.Word

	mux *http.ServeMux
}

// NewHandler creates a handler that posts to poster.
func NewHandler(poster Poster, defaultPriority machine.Word) (h *Handler) {
	h = &Handler{
		Poster:          poster,
		DefaultPriority: defaultPriority,
		mux:             http.NewServeMux(),
	}

	h.mux.HandleFunc("POST "+INTERRUPT_PATH, h.interrupt)

	return
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) reply(w http.ResponseWriter, status int, err error) {
	resp := Response{Status: http.StatusText(status)}
	if err != nil {
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&resp)
}

func (h *Handler) interrupt(w http.ResponseWriter, r *http.Request) {
	var req Request

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&req)
	if err != nil {
		h.reply(w, http.StatusBadRequest, err)
		return
	}

	intr, err := req.Interrupt(h.DefaultPriority)
	if err != nil {
		h.reply(w, http.StatusBadRequest, err)
		return
	}

	logger := log.WithFields(log.Fields{
		"remote":    r.RemoteAddr,
		"interrupt": intr.Id,
	})

	err = h.Poster.Post(r.Context(), intr)
	if err != nil {
		logger.Warnf("monitor: %v", err)
		h.reply(w, http.StatusServiceUnavailable, err)
		return
	}

	if h.Verbose {
		logger.Debug("monitor: posted")
	}

	h.reply(w, http.StatusAccepted, nil)
}
