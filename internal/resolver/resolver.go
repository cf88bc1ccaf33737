// Package resolver maps an executing code location to the qualified name of its unit and the
// declared bases of the class that owns it.
package resolver

import (
	"errors"
	"fmt"

	"typin/internal/registry"
	"typin/internal/shape"
	"typin/internal/trace"

	"go.uber.org/zap"
)

// ErrResolutionMiss means no callable owns the code identity of a location. This happens for
// synthetic frames that the registry does not expose; the event should be discarded.
var ErrResolutionMiss = errors.New("resolver: no callable for code identity")

// Resolution is the identity of the unit executing at a location.
type Resolution struct {
	QualName  string // dotted name with "<locals>" stripped
	Namespace string // enclosing classes, "" at top level
	Unit      string
	Signature string

	// Functions are the namespaces of QualName that are function scopes, not classes.
	Functions []string

	// Bases of the class owning Namespace, in declaration order. Nil at top level or when
	// the declaring class could not be found.
	Bases []shape.Shape
	Class *registry.Class
}

// Stats counts resolver work.
type Stats struct {
	Attempted int
	Resolved  int
	Missed    int
	CacheHits int
	Scans     int
}

type cacheKey struct {
	file      string
	namespace string
}

// Resolver resolves locations against a registry. Declaring classes are cached per
// (file, namespace) since the same class is revisited on every method call.
type Resolver struct {
	registry registry.Registry
	logger   *zap.Logger
	cache    map[cacheKey]*registry.Class
	stats    Stats
}

func New(reg registry.Registry, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry: reg,
		logger:   logger,
		cache:    make(map[cacheKey]*registry.Class),
	}
}

func (r *Resolver) Stats() Stats {
	return r.stats
}

// Resolve returns the identity of the unit executing at loc.
func (r *Resolver) Resolve(loc trace.Location) (Resolution, error) {
	r.stats.Attempted++

	// 1. Find the callable that owns this code object.
	r.stats.Scans++
	fn, ok := r.registry.FindCallableByCodeID(loc.CodeID)
	if !ok {
		r.stats.Missed++
		r.logger.Debug("no callable for code identity",
			zap.String("file", loc.File),
			zap.Int("line", loc.Line),
			zap.String("function", loc.Function),
			zap.String("code_id", loc.CodeID))
		return Resolution{}, fmt.Errorf("%w: %s", ErrResolutionMiss, loc)
	}

	// 2. Qualified name, namespace and leaf.
	qualName := StripLocals(fn.QualName)
	namespace, unit := SplitQualName(qualName)
	res := Resolution{
		QualName:  qualName,
		Namespace: namespace,
		Unit:      unit,
		Signature: fn.Signature,
		Functions: FunctionScopes(fn.QualName),
	}
	r.stats.Resolved++
	if namespace == "" {
		return res, nil
	}

	// 3. The class member table stores private names mangled with the immediate class.
	_, classLeaf := SplitQualName(namespace)
	member := Mangle(fn.Name, classLeaf)

	// 4. Declaring class, from the cache when it still declares this callable.
	cls := r.declaringClass(cacheKey{file: loc.File, namespace: namespace}, member, fn)
	if cls == nil {
		r.logger.Warn("no class declares member, assuming no bases",
			zap.String("file", loc.File),
			zap.String("namespace", namespace),
			zap.String("member", member))
		return res, nil
	}

	bases, err := basesOf(cls)
	if err != nil {
		return Resolution{}, err
	}
	res.Class = cls
	res.Bases = bases
	return res, nil
}

func (r *Resolver) declaringClass(key cacheKey, member string, fn *registry.Callable) *registry.Class {
	if cls, ok := r.cache[key]; ok && cls.Declares(member, fn) {
		r.stats.CacheHits++
		return cls
	}
	r.stats.Scans++
	cls, ok := r.registry.FindClassDeclaringMember(member, fn)
	if !ok {
		return nil
	}
	r.cache[key] = cls
	return cls
}

func basesOf(cls *registry.Class) ([]shape.Shape, error) {
	bases := make([]shape.Shape, 0, len(cls.Bases))
	for _, repr := range cls.Bases {
		s, err := shape.OfTypeRepr(repr)
		if err != nil {
			return nil, fmt.Errorf("bases of %s: %w", cls.QualName, err)
		}
		bases = append(bases, s)
	}
	return bases, nil
}
