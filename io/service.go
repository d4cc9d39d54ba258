package io

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/kernel"
)

// Complete performs a blocked I/O request on a channel, and returns the
// interrupt that wakes the process. A failed read still completes, with
// the EOF character.
func Complete(ch Channel, req kernel.IoRequest) (intr kernel.Interrupt, err error) {
	intr.Pid = req.Pid

	switch req.Reason {
	case kernel.REASON_INPUT:
		intr.Id = kernel.INT_INPUT_DONE
		intr.Char, err = ch.Getc()
		if err != nil {
			intr.Char = EOF
		}
	case kernel.REASON_OUTPUT:
		intr.Id = kernel.INT_OUTPUT_DONE
		err = ch.Putc(req.Char)
	default:
		intr.Id = kernel.INT_NONE
	}

	return
}

// Servicer completes I/O requests on a channel in its own goroutine.
type Servicer struct {
	Verbose bool
	Channel Channel
}

// Serve completes each request in turn, posting the completion interrupt.
// It returns when requests is closed or the context is done.
func (sv *Servicer) Serve(ctx context.Context, requests <-chan kernel.IoRequest, interrupts chan<- kernel.Interrupt) (err error) {
	for {
		var req kernel.IoRequest
		var ok bool

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case req, ok = <-requests:
			if !ok {
				return
			}
		}

		logger := log.WithFields(log.Fields{
			"pid":    req.Pid,
			"reason": req.Reason,
		})

		intr, ierr := Complete(sv.Channel, req)
		switch {
		case ierr == nil:
			if sv.Verbose {
				logger.Debugf("io: %v", intr.Id)
			}
		case isEOF(ierr):
			logger.Info(ierr)
		default:
			logger.Warn(ierr)
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case interrupts <- intr:
		}
	}
}
