package reflow

// ContextCarrier is implemented by any node that can hold provided values
// and knows its ancestor. Scopes implement it; host integrations implement
// it on their own tree nodes so inject lookups can cross from a root scope
// into the host's ancestry, regardless of how the node was constructed.
type ContextCarrier interface {
	// ContextValues returns the node's local key/value table, nil if the
	// node has provided nothing.
	ContextValues() map[any]any

	// ParentCarrier returns the nearest ancestor carrier, or nil at the
	// root.
	ParentCarrier() ContextCarrier
}

// ContextValues implements ContextCarrier.
func (s *Scope) ContextValues() map[any]any {
	s.valuesMu.RLock()
	defer s.valuesMu.RUnlock()
	return s.values
}

// ParentCarrier implements ContextCarrier. Root scopes defer to the host
// resolver installed with SetParentResolver, if any.
func (s *Scope) ParentCarrier() ContextCarrier {
	if s.parent != nil {
		return s.parent
	}
	if s.hostParent != nil {
		return s.hostParent()
	}
	return nil
}

// SetParentResolver links a root scope to the host's ancestry. The resolver
// is consulted at inject time, so the host may walk its own tree upward to
// the nearest scope-bearing node lazily.
func (s *Scope) SetParentResolver(resolve func() ContextCarrier) {
	s.hostParent = resolve
}

// SetValue stores a provided value on this scope. Re-providing the same key
// overwrites.
func (s *Scope) SetValue(key, value any) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()

	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// lookupValue walks the carrier chain from s to the root.
func (s *Scope) lookupValue(key any) (any, bool) {
	var carrier ContextCarrier = s
	for carrier != nil {
		if values := carrier.ContextValues(); values != nil {
			if value, ok := values[key]; ok {
				return value, true
			}
		}
		carrier = carrier.ParentCarrier()
	}
	return nil, false
}

// Provide stores value under key in the current scope's context table.
// Descendant scopes see it via Inject; a descendant providing the same key
// shadows it. Provided values are not reactive themselves — store a Ref to
// compose reactivity.
func Provide(key, value any) {
	if scope := getCurrentScope(); scope != nil {
		scope.SetValue(key, value)
		return
	}
	if DebugMode {
		println("reflow: Provide called with no active scope")
	}
}

// Inject looks up key from the current scope outward through its ancestry.
// The nearest provider wins. Returns ErrNoProvider if no ancestor provided
// the key, and ErrNoActiveScope outside any scope. Lookup is synchronous
// and O(depth); it is not itself reactive.
func Inject(key any) (any, error) {
	scope := getCurrentScope()
	if scope == nil {
		return nil, ErrNoActiveScope
	}
	if value, ok := scope.lookupValue(key); ok {
		return value, nil
	}
	return nil, ErrNoProvider
}

// InjectOr is Inject with a default: when no ancestor provided the key, the
// fallback is returned instead of an error.
func InjectOr(key, fallback any) any {
	if value, err := Inject(key); err == nil {
		return value
	}
	return fallback
}

// Context provides typed dependency passing through the scope tree.
// Create one with CreateContext, provide a value with Provide, and read it
// with Use or Lookup.
//
// Example:
//
//	var Theme = reflow.CreateContext("light")
//
//	// in an ancestor's setup:
//	Theme.Provide("dark")
//
//	// in any descendant:
//	theme := Theme.Use() // "dark"
type Context[T any] struct {
	// key uniquely identifies this context in scope value tables.
	key any

	// defaultValue is returned by Use when no provider is found.
	defaultValue T
}

// contextKey wraps the context pointer to make a unique map key type.
type contextKey[T any] struct {
	ctx *Context[T]
}

// CreateContext creates a typed context with the given default value.
func CreateContext[T any](defaultValue T) *Context[T] {
	ctx := &Context[T]{
		defaultValue: defaultValue,
	}
	ctx.key = contextKey[T]{ctx: ctx}
	return ctx
}

// Provide stores value for this context on the current scope.
func (c *Context[T]) Provide(value T) {
	Provide(c.key, value)
}

// Use returns the value from the nearest providing ancestor, or the
// context's default when no provider is found.
func (c *Context[T]) Use() T {
	value, err := c.Lookup()
	if err != nil {
		return c.defaultValue
	}
	return value
}

// Lookup returns the value from the nearest providing ancestor, or
// ErrNoProvider / ErrNoActiveScope without falling back to the default.
func (c *Context[T]) Lookup() (T, error) {
	value, err := Inject(c.key)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, ErrNoProvider
	}
	return typed, nil
}

// Default returns the default value for this context.
func (c *Context[T]) Default() T {
	return c.defaultValue
}
