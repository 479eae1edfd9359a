// Package sector maps symbols to their industry and concept sectors.
package sector

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// DefaultExcludeKeywords drop index-membership and trading-channel tags that
// are not sectors.
var DefaultExcludeKeywords = []string{"MSCI", "标普", "同花顺", "融资融券", "沪股通"}

// Filter returns the sectors whose names contain none of keywords.
func Filter(sectors []string, keywords []string) []string {
	out := make([]string, 0, len(sectors))
	for _, s := range sectors {
		keep := true
		for _, k := range keywords {
			if k != "" && strings.Contains(s, k) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return out
}

// Service serves the symbol to sector classification. The file is read on
// first use and the result is shared read-only by all callers.
type Service struct {
	path    string
	exclude []string
	logger  zerolog.Logger

	mu       sync.Mutex
	loaded   bool
	bySymbol map[string][]string
	bySector map[string][]string
	names    []string
}

// NewService creates a service backed by a JSON or YAML file mapping each
// symbol to its list of sector names.
func NewService(path string, exclude []string, logger zerolog.Logger) *Service {
	return &Service{
		path:    path,
		exclude: exclude,
		logger:  logger.With().Str("component", "sector").Logger(),
	}
}

// NewStatic creates a service over an in-memory classification.
func NewStatic(data map[string][]string, exclude []string) *Service {
	s := &Service{exclude: exclude, logger: zerolog.Nop()}
	s.index(data)
	s.loaded = true
	return s
}

// ensure loads the classification once. A missing or unreadable file yields
// an empty classification.
func (s *Service) ensure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	data, err := s.read()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to load sector data")
	}
	s.index(data)
	s.loaded = true
}

func (s *Service) read() (map[string][]string, error) {
	if s.path == "" {
		return nil, errors.Wrap(errors.ErrDataNotFound, "sector data path not configured")
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sector data")
	}
	var data map[string][]string
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "failed to parse sector data")
	}
	return data, nil
}

// index builds the lookup tables; the caller holds mu.
func (s *Service) index(data map[string][]string) {
	s.bySymbol = make(map[string][]string, len(data))
	s.bySector = make(map[string][]string)
	for symbol, sectors := range data {
		kept := Filter(sectors, s.exclude)
		s.bySymbol[symbol] = kept
		for _, name := range kept {
			s.bySector[name] = append(s.bySector[name], symbol)
		}
	}
	s.names = make([]string, 0, len(s.bySector))
	for name, symbols := range s.bySector {
		sort.Strings(symbols)
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	s.logger.Debug().Int("symbols", len(s.bySymbol)).Int("sectors", len(s.names)).Msg("Sector data indexed")
}

// Reload re-reads the backing file, replacing the classification only when
// the read succeeds.
func (s *Service) Reload() error {
	data, err := s.read()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index(data)
	s.loaded = true
	return nil
}

// Lookup returns the filtered sectors of symbol, empty when unknown.
func (s *Service) Lookup(symbol string) []string {
	s.ensure()
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.bySymbol[symbol]...)
}

// Sectors returns every sector name in sorted order.
func (s *Service) Sectors() []string {
	s.ensure()
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Symbols returns up to limit symbols of sector listed on board, sorted. A
// non-positive limit returns all of them.
func (s *Service) Symbols(sector string, board models.Board, limit int) ([]string, error) {
	s.ensure()
	s.mu.Lock()
	members, ok := s.bySector[sector]
	s.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrSectorNotFound, "sector %q", sector)
	}

	var out []string
	for _, symbol := range members {
		if !models.OnBoard(symbol, board) {
			continue
		}
		out = append(out, symbol)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
