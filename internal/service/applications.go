package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/backoffice/internal/apperr"
	"github.com/kiranshivaraju/backoffice/internal/query"
	"github.com/kiranshivaraju/backoffice/internal/resource"
	"github.com/kiranshivaraju/backoffice/internal/store"
	"github.com/kiranshivaraju/backoffice/internal/tenant"
	"github.com/kiranshivaraju/backoffice/pkg/models"
	"github.com/kiranshivaraju/backoffice/pkg/patch"
	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix marks application keys in an Authorization header.
	KeyPrefix    = "mk_"
	keyBytes     = 20
	KeyPrefixLen = 8
	maxScopeLen  = 50
)

var appNameKey = resource.Key{Field: "name", Column: "name"}

type CreateApplicationInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Scopes      []string `json:"scopes"`
}

type UpdateApplicationInput struct {
	Name        patch.Field[string]   `json:"name"`
	Description patch.Field[string]   `json:"description"`
	Scopes      patch.Field[[]string] `json:"scopes"`
}

// ApplicationService manages API clients. Removing an application revokes
// its key.
type ApplicationService struct {
	engine *resource.Engine[*models.Application]
	cost   int
}

// NewApplicationService hashes keys with the given bcrypt cost.
func NewApplicationService(apps resource.Repository[*models.Application], cost int) *ApplicationService {
	return &ApplicationService{
		engine: &resource.Engine[*models.Application]{
			Name: "application",
			Repo: apps,
			Sort: query.SortSpec{
				Fields: map[string]string{
					"name":       "name",
					"lastUsedAt": "last_used_at",
					"createdAt":  "created_at",
				},
				Default: "createdAt",
			},
		},
		cost: cost,
	}
}

// GenerateKey returns a new raw application key.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}

func scopes(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || len(s) > maxScopeLen {
			return nil, apperr.InvalidField("scopes", "scopes must be non-empty and at most %d characters", maxScopeLen)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (s *ApplicationService) Create(ctx context.Context, tenantID int64, in CreateApplicationInput) (*models.Application, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	n, err := name("name", resource.TrimKey(in.Name))
	if err != nil {
		return nil, err
	}
	sc, err := scopes(in.Scopes)
	if err != nil {
		return nil, err
	}

	if err := s.engine.EnsureUnique(ctx, tenantID, appNameKey, n, 0); err != nil {
		return nil, err
	}
	raw, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	v := store.Values{}.
		Set("name", n).
		Set("description", strings.TrimSpace(in.Description)).
		Set("key_hash", string(hash)).
		Set("key_prefix", raw[:KeyPrefixLen]).
		Set("scopes", sc)
	app, err := s.engine.Create(ctx, tenantID, v, &appNameKey)
	if err != nil {
		return nil, err
	}
	app.Key = raw
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, tenantID int64, p query.Params, v url.Values) ([]*models.Application, query.Meta, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, query.Meta{}, err
	}
	conds, err := newFilters(v).
		contains("name", "name").
		done()
	if err != nil {
		return nil, query.Meta{}, err
	}
	return s.engine.List(ctx, tenantID, p, v.Get("status"), conds)
}

func (s *ApplicationService) Get(ctx context.Context, tenantID, id int64) (*models.Application, error) {
	return s.engine.Get(ctx, tenantID, id)
}

func (s *ApplicationService) Update(ctx context.Context, tenantID, id int64, in UpdateApplicationInput) (*models.Application, error) {
	if err := tenant.Require(tenantID); err != nil {
		return nil, err
	}
	if err := resource.ValidateID("id", id); err != nil {
		return nil, err
	}
	var v store.Values
	n, nameSet, err := patchedName("name", in.Name)
	if err != nil {
		return nil, err
	}
	desc, ok, err := notNull("description", in.Description)
	if err != nil {
		return nil, err
	}
	if ok {
		v = v.Set("description", strings.TrimSpace(desc))
	}
	if raw, ok := in.Scopes.Value(); ok || in.Scopes.IsNull() {
		sc, err := scopes(raw)
		if err != nil {
			return nil, err
		}
		v = v.Set("scopes", sc)
	}

	cur, err := s.engine.LoadActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if nameSet && n != cur.Name {
		if !strings.EqualFold(n, cur.Name) {
			if err := s.engine.EnsureUnique(ctx, tenantID, appNameKey, n, id); err != nil {
				return nil, err
			}
		}
		v = v.Set("name", n)
	}
	return s.engine.Apply(ctx, tenantID, id, v, &appNameKey)
}

// Remove revokes the application's key.
func (s *ApplicationService) Remove(ctx context.Context, tenantID, id int64) (*models.Application, error) {
	return s.engine.Remove(ctx, tenantID, id)
}
