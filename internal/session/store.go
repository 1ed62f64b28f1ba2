// Package session guarda, por sessão, as duas bases em uso (fechamento e novos comércios).
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"reconciliation-service/internal/domain"
)

// Source indica de onde vieram as bases da sessão.
type Source string

const (
	SourceEmpty   Source = "vazio"
	SourceRepo    Source = "repo"
	SourceSession Source = "session"
)

// Datasets é um snapshot imutável das bases de uma sessão. Atualizações criam um novo valor.
type Datasets struct {
	Settlements domain.SettlementTable `json:"-"`
	Merchants   domain.MerchantTable   `json:"-"`
	Source      Source                 `json:"source"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Empty informa se nenhuma das bases tem linhas.
func (d Datasets) Empty() bool {
	return d.Settlements.Len() == 0 && d.Merchants.Len() == 0
}

// Store é um LRU com expiração de sessões. É seguro para uso concorrente.
type Store struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, Datasets]
	defaults Datasets
}

// NewStore cria o store com no máximo size sessões, cada uma expirando após ttl sem escrita.
func NewStore(size int, ttl time.Duration) *Store {
	return &Store{
		cache:    expirable.NewLRU[string, Datasets](size, nil, ttl),
		defaults: Datasets{Source: SourceEmpty},
	}
}

// SetDefaults define as bases com que novas sessões começam.
func (s *Store) SetDefaults(d Datasets) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Source == "" {
		d.Source = SourceRepo
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}
	s.defaults = d
}

// Defaults devolve as bases padrão.
func (s *Store) Defaults() Datasets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// Open devolve a sessão id, criando-a com as bases padrão quando id está vazio,
// expirou ou nunca existiu. O id devolvido deve ser usado pelo cliente dali em diante.
func (s *Store) Open(id string) (string, Datasets) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if d, ok := s.cache.Get(id); ok {
			return id, d
		}
	} else {
		id = uuid.NewString()
	}
	s.cache.Add(id, s.defaults)
	return id, s.defaults
}

// Get devolve a sessão sem criá-la.
func (s *Store) Get(id string) (Datasets, bool) {
	return s.cache.Get(id)
}

// Update aplica fn sobre o snapshot atual da sessão e grava o resultado.
func (s *Store) Update(id string, fn func(Datasets) Datasets) Datasets {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cache.Get(id)
	if !ok {
		current = s.defaults
	}
	next := fn(current)
	next.UpdatedAt = time.Now()
	s.cache.Add(id, next)
	return next
}

// ReplaceSettlements troca o fechamento da sessão, marcando a origem como upload.
func (s *Store) ReplaceSettlements(id string, t domain.SettlementTable) Datasets {
	return s.Update(id, func(d Datasets) Datasets {
		d.Settlements = t
		d.Source = SourceSession
		return d
	})
}

// ReplaceMerchants troca os novos comércios da sessão, marcando a origem como upload.
func (s *Store) ReplaceMerchants(id string, t domain.MerchantTable) Datasets {
	return s.Update(id, func(d Datasets) Datasets {
		d.Merchants = t
		d.Source = SourceSession
		return d
	})
}

// Reset volta a sessão para as bases padrão.
func (s *Store) Reset(id string) Datasets {
	return s.Update(id, func(Datasets) Datasets {
		return s.defaults
	})
}

// Len devolve o número de sessões vivas.
func (s *Store) Len() int {
	return s.cache.Len()
}
