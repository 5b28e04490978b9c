// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"sync"

	"github.com/holomush/holoauth/internal/auth"
)

// Recorder counts facade outcomes in memory.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int)}
}

func (r *Recorder) add(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[op+"/"+result]++
}

// Count returns how often op ended with result.
func (r *Recorder) Count(op, result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[op+"/"+result]
}

// Login implements auth.Recorder.
func (r *Recorder) Login(result string) { r.add("login", result) }

// Registration implements auth.Recorder.
func (r *Recorder) Registration(result string) { r.add("register", result) }

// ResetIssued implements auth.Recorder.
func (r *Recorder) ResetIssued(result string) { r.add("reset", result) }

// PasswordUpdated implements auth.Recorder.
func (r *Recorder) PasswordUpdated(result string) { r.add("password", result) }

var _ auth.Recorder = (*Recorder)(nil)
