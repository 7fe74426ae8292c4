// Package pairing implements the standalone, file-backed pairing store:
// channel users request a short code, the operator approves it out of band
// (CLI or a privileged RPC call), and the channel then treats that sender ID
// as authorized.
package pairing

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeroaltitude/openclaw/internal/store"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I

// Service is a file-backed store.PairingStore.
type Service struct {
	path string

	mu       sync.Mutex
	requests map[string]*store.PairingRequest // code -> request
	approved map[string]map[string]bool       // channel -> userID -> true
}

// NewService opens (or creates) the pairing file at path.
func NewService(path string) *Service {
	s := &Service{
		path:     path,
		requests: make(map[string]*store.PairingRequest),
		approved: make(map[string]map[string]bool),
	}
	s.load()
	return s
}

type persisted struct {
	Requests []store.PairingRequest `json:"requests"`
}

func (s *Service) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	for i := range p.Requests {
		req := p.Requests[i]
		s.requests[req.Code] = &req
		if req.Approved {
			s.markApprovedLocked(req.UserID, req.Channel)
		}
	}
}

func (s *Service) markApprovedLocked(userID, channel string) {
	m, ok := s.approved[channel]
	if !ok {
		m = make(map[string]bool)
		s.approved[channel] = m
	}
	m[userID] = true
}

func (s *Service) saveLocked() error {
	reqs := make([]store.PairingRequest, 0, len(s.requests))
	for _, r := range s.requests {
		reqs = append(reqs, *r)
	}
	data, err := json.MarshalIndent(persisted{Requests: reqs}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// RequestPairing returns the existing code for userID on channel if one is
// already pending or approved, otherwise issues a new one.
func (s *Service) RequestPairing(userID, channel, chatID, agentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.UserID == userID && r.Channel == channel {
			return r.Code, nil
		}
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("pairing: generate code: %w", err)
	}
	s.requests[code] = &store.PairingRequest{
		Code:      code,
		UserID:    userID,
		Channel:   channel,
		ChatID:    chatID,
		AgentID:   agentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Service) IsPaired(userID, channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approved[channel][userID]
}

func (s *Service) Approve(code string) (*store.PairingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[code]
	if !ok {
		return nil, fmt.Errorf("pairing: unknown code %q", code)
	}
	req.Approved = true
	s.markApprovedLocked(req.UserID, req.Channel)
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	out := *req
	return &out, nil
}

func (s *Service) Revoke(userID, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.approved[channel]; ok {
		delete(m, userID)
	}
	for code, r := range s.requests {
		if r.UserID == userID && r.Channel == channel {
			delete(s.requests, code)
		}
	}
	return s.saveLocked()
}

func (s *Service) List() ([]store.PairingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PairingRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, *r)
	}
	return out, nil
}

func generateCode() (string, error) {
	b := make([]byte, 6)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
