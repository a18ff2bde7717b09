package ownership

import "github.com/kasuganosora/stashcount/model"

// Resolution is what a host inventory provider returns at query time.
type Resolution struct {
	// Available is false when the host cannot provide a reference right now,
	// e.g. the storage container while the player is outside the base zone.
	Available bool
	// Source identifies the underlying container; a change means it was
	// swapped (e.g. another save was loaded). Only used for storage.
	Source string
	Roots  []*model.ContainerNode
}

// Available returns a reachable resolution with the given top-level items.
func Available(source string, roots ...*model.ContainerNode) Resolution {
	return Resolution{Available: true, Source: source, Roots: roots}
}

// Unavailable returns the resolution for a container that cannot be reached.
func Unavailable() Resolution {
	return Resolution{}
}

// Empty reports whether the resolution holds no non-nil root.
func (r Resolution) Empty() bool {
	for _, n := range r.Roots {
		if n != nil {
			return false
		}
	}
	return true
}

// Resolver resolves one ownership role to its current container roots.
type Resolver interface {
	Resolve() Resolution
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func() Resolution

func (f ResolverFunc) Resolve() Resolution { return f() }

// Resolvers bundles the three host providers.
type Resolvers struct {
	Player    Resolver
	Storage   Resolver
	Companion Resolver
}

func resolve(r Resolver) Resolution {
	if r == nil {
		return Unavailable()
	}
	return r.Resolve()
}
