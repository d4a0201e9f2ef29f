package evaluator

// Env is a single scope of variable bindings.
type Env struct {
	bindings map[string]Value
}

// NewEnv creates an empty scope.
func NewEnv() *Env {
	return &Env{bindings: make(map[string]Value)}
}

// Get looks up a variable in this scope only.
func (e *Env) Get(name string) (Value, bool) {
	val, ok := e.bindings[name]
	return val, ok
}

// Has checks whether a variable is bound in this scope.
func (e *Env) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Define binds a variable in this scope, replacing any existing binding.
func (e *Env) Define(name string, val Value) {
	e.bindings[name] = val
}

// Len returns the number of bindings in this scope.
func (e *Env) Len() int {
	return len(e.bindings)
}

// Chain is the ordered stack of scopes, innermost last. It always holds at
// least the global scope.
type Chain struct {
	scopes []*Env
}

// NewChain creates a chain holding only the global scope.
func NewChain() *Chain {
	return &Chain{scopes: []*Env{NewEnv()}}
}

// Push enters a fresh innermost scope.
func (c *Chain) Push() {
	c.scopes = append(c.scopes, NewEnv())
}

// Pop leaves the innermost scope. The global scope is never popped.
func (c *Chain) Pop() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// Depth returns the number of scopes in the chain.
func (c *Chain) Depth() int {
	return len(c.scopes)
}

// Global returns the outermost scope.
func (c *Chain) Global() *Env {
	return c.scopes[0]
}

// Innermost returns the most recently pushed scope.
func (c *Chain) Innermost() *Env {
	return c.scopes[len(c.scopes)-1]
}

// Lookup scans from innermost to outermost and returns the first scope that binds name.
func (c *Chain) Lookup(name string) (*Env, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].Has(name) {
			return c.scopes[i], true
		}
	}
	return nil, false
}

// Get resolves name through the chain.
func (c *Chain) Get(name string) (Value, bool) {
	env, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	return env.Get(name)
}

// Has reports whether name is bound anywhere in the chain.
func (c *Chain) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Define binds name in the innermost scope, shadowing outer bindings.
func (c *Chain) Define(name string, val Value) {
	c.Innermost().Define(name, val)
}

// Set rebinds name in the scope where it is found. It reports false when
// name is not bound anywhere.
func (c *Chain) Set(name string, val Value) bool {
	env, ok := c.Lookup(name)
	if !ok {
		return false
	}
	env.Define(name, val)
	return true
}
