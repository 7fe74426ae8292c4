package file

import (
	"github.com/zeroaltitude/openclaw/internal/pairing"
	"github.com/zeroaltitude/openclaw/internal/store"
)

// FilePairingStore wraps pairing.Service to implement store.PairingStore,
// matching the standalone wiring shape of FileSessionStore/FileCronStore.
type FilePairingStore struct {
	svc *pairing.Service
}

func NewFilePairingStore(svc *pairing.Service) *FilePairingStore {
	return &FilePairingStore{svc: svc}
}

func (f *FilePairingStore) RequestPairing(userID, channel, chatID, agentID string) (string, error) {
	return f.svc.RequestPairing(userID, channel, chatID, agentID)
}

func (f *FilePairingStore) IsPaired(userID, channel string) bool {
	return f.svc.IsPaired(userID, channel)
}

func (f *FilePairingStore) Approve(code string) (*store.PairingRequest, error) {
	return f.svc.Approve(code)
}

func (f *FilePairingStore) Revoke(userID, channel string) error {
	return f.svc.Revoke(userID, channel)
}

func (f *FilePairingStore) List() ([]store.PairingRequest, error) {
	return f.svc.List()
}
