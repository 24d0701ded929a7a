package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// ValidSignature guards the page against reading garbage or a
// foreign-format page as if it were valid Configuration (spec §6).
const ValidSignature uint32 = 0x54544e44 // "TTND"

const (
	minSupportedVersion = 1
	maxSupportedVersion = 1
	currentVersion       = 1
)

// page is the on-disk envelope: signature_top, version, CBOR-encoded
// body, signature_bottom. Both signatures must match and the version
// must fall within the supported range, or the page is considered
// corrupt.
type page struct {
	SignatureTop    uint32 `cbor:"1,keyasint"`
	Version         uint16 `cbor:"2,keyasint"`
	Body            []byte `cbor:"3,keyasint"`
	SignatureBottom uint32 `cbor:"4,keyasint"`
}

// Store manages the single persistent Configuration page, serialized
// to a file standing in for the flash page the firmware would erase
// and rewrite atomically.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the Configuration page. If the page is missing, its
// signatures don't match, or its version is out of range, Load returns
// Default() and writes it back, mirroring storage_set_to_default's
// "reinitialize and save" behavior.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.tryLoad()
	if ok {
		return cfg, nil
	}

	def := Default()
	if err := s.save(def); err != nil {
		return def, fmt.Errorf("storage: write default page: %w", err)
	}
	return def, nil
}

func (s *Store) tryLoad() (Config, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, false
	}

	var p page
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return Config{}, false
	}
	if p.SignatureTop != ValidSignature || p.SignatureBottom != ValidSignature {
		return Config{}, false
	}
	if p.Version < minSupportedVersion || p.Version > maxSupportedVersion {
		return Config{}, false
	}

	var cfg Config
	if err := cbor.Unmarshal(p.Body, &cfg); err != nil {
		return Config{}, false
	}
	return cfg, true
}

// Save atomically erases and rewrites the page: the new page is
// written to a temp file, then renamed over the live path, so a crash
// mid-write never leaves a half-written page behind.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg Config) error {
	body, err := cbor.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("storage: encode body: %w", err)
	}

	p := page{
		SignatureTop:    ValidSignature,
		Version:         currentVersion,
		Body:            body,
		SignatureBottom: ValidSignature,
	}
	raw, err := cbor.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: encode page: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: create directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("storage: write page: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("storage: commit page: %w", err)
	}
	return nil
}
