// Package source stores uploaded documents and crawled links as hashes.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/kailas-cloud/duet/internal/db"
	"github.com/kailas-cloud/duet/internal/domain"
	domsrc "github.com/kailas-cloud/duet/internal/domain/source"
)

// store is the consumer interface for sources (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the document and link stores.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a source repository. Keys live under prefix (domain.DefaultKeyPrefix when empty).
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Put stores a source, replacing any earlier one with the same kind and name.
func (r *Repo) Put(ctx context.Context, src domsrc.Source) error {
	key := r.sourceKey(src.Kind, src.Name)
	fields := map[string]string{
		"name":       src.Name,
		"text":       src.Text,
		"created_at": strconv.FormatInt(r.now().UnixMilli(), 10),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s %q: %w", src.Kind, src.Name, err)
	}
	if err := r.store.SAdd(ctx, r.namesKey(src.Kind), src.Name); err != nil {
		return fmt.Errorf("sadd %s %q: %w", src.Kind, src.Name, err)
	}
	return nil
}

// Get returns the stored source. A missing one yields the kind's not-found sentinel.
// name is normalized the same way Put stored it.
func (r *Repo) Get(ctx context.Context, kind domsrc.Kind, name string) (domsrc.Source, error) {
	name = domsrc.NormalizeName(name)
	m, err := r.store.HGetAll(ctx, r.sourceKey(kind, name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsrc.Source{}, kind.NotFound()
		}
		return domsrc.Source{}, fmt.Errorf("hgetall %s %q: %w", kind, name, err)
	}
	if len(m) == 0 {
		return domsrc.Source{}, kind.NotFound()
	}
	return domsrc.Source{Kind: kind, Name: m["name"], Text: m["text"]}, nil
}

// List returns the stored names of a kind in lexical order.
func (r *Repo) List(ctx context.Context, kind domsrc.Kind) ([]string, error) {
	names, err := r.store.SMembers(ctx, r.namesKey(kind))
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", kind, err)
	}
	slices.Sort(names)
	return names, nil
}

func (r *Repo) sourceKey(kind domsrc.Kind, name string) string {
	h := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s%s:%s", r.prefix, kind, hex.EncodeToString(h[:]))
}

func (r *Repo) namesKey(kind domsrc.Kind) string {
	return fmt.Sprintf("%s%s:names", r.prefix, kind)
}
