/*-------------------------------------------------------------------------
 *
 * container.go
 *    Capability registry
 *
 * Maps capability names onto provider implementations. Registration
 * happens during bootstrap; the container is sealed before the server
 * starts and is read-only afterwards.
 *
 *-------------------------------------------------------------------------
 */

package injector

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

/* Capability names */
const (
	CapabilityFileStorage = "FileStorage"
	CapabilityEmailSender = "EmailSender"
	CapabilitySMSSender   = "SMSSender"
	CapabilityCache       = "Cache"
)

var (
	/* ErrNotRegistered is returned when no provider backs a capability */
	ErrNotRegistered = errors.New("capability not registered")
	/* ErrSealed is returned when registering into a sealed container */
	ErrSealed = errors.New("container is sealed")
)

/* Container maps capability names onto implementations */
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	sealed   bool
}

/* New creates an empty container */
func New() *Container {
	return &Container{services: make(map[string]interface{})}
}

/* Register binds impl to name; a name can be bound once */
func (c *Container) Register(name string, impl interface{}) error {
	if name == "" {
		return fmt.Errorf("capability name is required")
	}
	if impl == nil {
		return fmt.Errorf("capability %s: implementation is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return fmt.Errorf("register %s: %w", name, ErrSealed)
	}
	if _, exists := c.services[name]; exists {
		return fmt.Errorf("capability %s is already registered", name)
	}
	c.services[name] = impl
	return nil
}

/* Resolve returns the implementation bound to name */
func (c *Container) Resolve(name string) (interface{}, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	impl, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotRegistered)
	}
	return impl, nil
}

/* ResolveAs resolves name and asserts the implementation to T */
func ResolveAs[T any](c *Container, name string) (T, error) {
	var zero T
	impl, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := impl.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s is %T, not %T", name, impl, zero)
	}
	return typed, nil
}

// Has reports whether name is bound.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Names returns the bound capability names, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.services)
}

// Seal rejects any further registration.
func (c *Container) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (c *Container) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

/* Close closes every registered implementation that holds resources */
func (c *Container) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var errs []error
	for _, name := range sortedKeys(c.services) {
		if closer, ok := c.services[name].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
