package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

// =============================================================================
// RESOLVER - Most specific applicable parameter wins
// =============================================================================

// ParameterSource returns every parameter attached to one owner at one scope
// level, active or not. The Resolver does the filtering.
type ParameterSource interface {
	ParametersFor(ctx context.Context, level ScopeLevel, ownerID string) ([]Parameter, error)
}

type Query struct {
	ClientID     string
	CollecteurID string
	AgenceID     string
	ProductCode  string
	AsOf         generic.TimePoint
}

func (q Query) ownerAt(level ScopeLevel) string {
	switch level {
	case ScopeClient:
		return q.ClientID
	case ScopeCollecteur:
		return q.CollecteurID
	case ScopeAgence:
		return q.AgenceID
	default:
		return ""
	}
}

// NoApplicableParameterError is both a not-found and a configuration error:
// the lookup found nothing, and the tariff setup does not cover the client.
type NoApplicableParameterError struct {
	Query Query
}

func (e *NoApplicableParameterError) Error() string {
	return fmt.Sprintf("no applicable commission parameter for client %s (collecteur %s, agence %s) at %s",
		e.Query.ClientID, e.Query.CollecteurID, e.Query.AgenceID, e.Query.AsOf)
}

func (e *NoApplicableParameterError) Unwrap() []error {
	return []error{generic.ErrNotFound, generic.ErrConfiguration}
}

type Resolver struct {
	Source ParameterSource
}

func NewResolver(source ParameterSource) *Resolver {
	return &Resolver{Source: source}
}

// Resolve walks CLIENT → COLLECTEUR → AGENCE. A more specific scope always
// overrides a broader one, whatever their dates. Two applicable parameters at
// the same level are ambiguous and rejected.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Parameter, error) {
	for _, level := range ResolutionOrder {
		owner := q.ownerAt(level)
		if owner == "" {
			continue
		}

		params, err := r.Source.ParametersFor(ctx, level, owner)
		if err != nil && !errors.Is(err, generic.ErrNotFound) {
			return Parameter{}, fmt.Errorf("load %s parameters for %s: %w", level, owner, err)
		}

		candidates := applicable(params, q)
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			ids := make([]string, len(candidates))
			for i, c := range candidates {
				ids[i] = c.ID
			}
			return Parameter{}, generic.NewConfigurationError(
				string(level)+" "+owner,
				"%d active commission parameters at the same level (%s)", len(candidates), strings.Join(ids, ", "))
		}
	}
	return Parameter{}, &NoApplicableParameterError{Query: q}
}

// applicable keeps parameters active at q.AsOf. When a product code is asked
// for, exact product matches shadow product-less parameters.
func applicable(params []Parameter, q Query) []Parameter {
	var exact, fallback []Parameter
	for _, p := range params {
		if !p.AppliesAt(q.AsOf) {
			continue
		}
		switch {
		case p.ProductCode == "":
			fallback = append(fallback, p)
		case q.ProductCode != "" && p.ProductCode == q.ProductCode:
			exact = append(exact, p)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return fallback
}
