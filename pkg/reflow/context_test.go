package reflow

import (
	"errors"
	"testing"
)

func TestProvideInject(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	var got any
	var err error

	scope.Run(func() {
		Provide("theme", "dark")
		got, err = Inject("theme")
	})

	if err != nil {
		t.Fatal(err)
	}
	if got != "dark" {
		t.Errorf("expected dark, got %v", got)
	}
}

func TestInjectWalksAncestors(t *testing.T) {
	root := NewScope(nil)
	defer root.Dispose()

	root.Run(func() {
		Provide("db", "primary")

		child := NewScope(getCurrentScope())
		child.Run(func() {
			grandchild := NewScope(getCurrentScope())
			grandchild.Run(func() {
				got, err := Inject("db")
				if err != nil {
					t.Fatal(err)
				}
				if got != "primary" {
					t.Errorf("expected primary, got %v", got)
				}
			})
		})
	})
}

func TestInjectNearestProviderWins(t *testing.T) {
	root := NewScope(nil)
	defer root.Dispose()

	root.Run(func() {
		Provide("env", "prod")

		child := NewScope(getCurrentScope())
		child.Run(func() {
			Provide("env", "staging")
			got, _ := Inject("env")
			if got != "staging" {
				t.Errorf("child should see its own provider, got %v", got)
			}
		})

		// Sibling providers don't leak.
		sibling := NewScope(getCurrentScope())
		sibling.Run(func() {
			got, _ := Inject("env")
			if got != "prod" {
				t.Errorf("sibling should see the root provider, got %v", got)
			}
		})
	})
}

func TestInjectNoProvider(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	scope.Run(func() {
		_, err := Inject("missing")
		if !errors.Is(err, ErrNoProvider) {
			t.Errorf("expected ErrNoProvider, got %v", err)
		}
	})
}

func TestInjectNoActiveScope(t *testing.T) {
	_, err := Inject("anything")
	if !errors.Is(err, ErrNoActiveScope) {
		t.Errorf("expected ErrNoActiveScope, got %v", err)
	}
}

func TestInjectOrDefault(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	scope.Run(func() {
		got := InjectOr("retries", 3)
		if got != 3 {
			t.Errorf("expected fallback 3, got %v", got)
		}

		Provide("retries", 7)
		got = InjectOr("retries", 3)
		if got != 7 {
			t.Errorf("expected provided 7, got %v", got)
		}
	})
}

type themeConfig struct {
	Name string
}

func TestTypedContext(t *testing.T) {
	themeCtx := CreateContext(themeConfig{Name: "light"})

	root := NewScope(nil)
	defer root.Dispose()

	root.Run(func() {
		// No provider yet: Use falls back to the default.
		if got := themeCtx.Use(); got.Name != "light" {
			t.Errorf("expected default theme, got %q", got.Name)
		}
		if _, err := themeCtx.Lookup(); !errors.Is(err, ErrNoProvider) {
			t.Errorf("Lookup without provider should fail, got %v", err)
		}

		themeCtx.Provide(themeConfig{Name: "dark"})

		child := NewScope(getCurrentScope())
		child.Run(func() {
			if got := themeCtx.Use(); got.Name != "dark" {
				t.Errorf("expected provided theme, got %q", got.Name)
			}
			got, err := themeCtx.Lookup()
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "dark" {
				t.Errorf("expected dark, got %q", got.Name)
			}
		})
	})

	if themeCtx.Default().Name != "light" {
		t.Errorf("Default should return the creation-time value")
	}
}

func TestTypedContextsAreDistinct(t *testing.T) {
	first := CreateContext("a")
	second := CreateContext("b")

	scope := NewScope(nil)
	defer scope.Dispose()

	scope.Run(func() {
		first.Provide("provided-a")
		if got := second.Use(); got != "b" {
			t.Errorf("contexts of the same type must not collide, got %q", got)
		}
		if got := first.Use(); got != "provided-a" {
			t.Errorf("expected provided-a, got %q", got)
		}
	})
}

// hostNode simulates a host-framework tree node that carries context values
// across a boundary where reactive scopes are not directly parented.
type hostNode struct {
	values map[any]any
	parent *hostNode
}

func (n *hostNode) ContextValues() map[any]any { return n.values }
func (n *hostNode) ParentCarrier() ContextCarrier {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func TestParentResolverBridgesHostTree(t *testing.T) {
	ancestor := &hostNode{values: map[any]any{"locale": "fr"}}
	node := &hostNode{values: map[any]any{}, parent: ancestor}

	scope := NewScope(nil)
	defer scope.Dispose()
	scope.SetParentResolver(func() ContextCarrier { return node })

	scope.Run(func() {
		got, err := Inject("locale")
		if err != nil {
			t.Fatal(err)
		}
		if got != "fr" {
			t.Errorf("expected fr via host ancestry, got %v", got)
		}
	})
}

func TestScopeParentTakesPrecedenceOverResolver(t *testing.T) {
	root := NewScope(nil)
	defer root.Dispose()

	host := &hostNode{values: map[any]any{"source": "host"}}

	root.Run(func() {
		Provide("source", "scope")

		child := NewScope(getCurrentScope())
		child.SetParentResolver(func() ContextCarrier { return host })
		child.Run(func() {
			got, _ := Inject("source")
			if got != "scope" {
				t.Errorf("real parent scope wins over host resolver, got %v", got)
			}
		})
	})
}
