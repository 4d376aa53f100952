package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache cache de lecturas por clave (endpoint + filtros). Lecturas concurrentes de
// una misma clave comparten una sola llamada; los errores no se guardan.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]any
	gen     map[string]uint64
	group   singleflight.Group
}

// NewQueryCache crea un cache vacío.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: map[string]any{}, gen: map[string]uint64{}}
}

// Key arma la clave de una consulta; los parámetros se codifican ordenados.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Invalidate descarta las entradas cuya clave empieza por prefix. Una carga en curso
// para esas claves no llega a guardarse.
func (c *QueryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	for k := range c.gen {
		if strings.HasPrefix(k, prefix) {
			c.gen[k]++
			c.group.Forget(k)
		}
	}
}

// Len número de entradas guardadas.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) lookup(key string) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if _, tracked := c.gen[key]; !tracked {
		c.gen[key] = 0
	}
	return v, c.gen[key], ok
}

func (c *QueryCache) store(key string, gen uint64, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[key] == gen {
		c.entries[key] = v
	}
}

// Fetch lee key del cache o la carga con load.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if v, _, ok := c.lookup(key); ok {
		return v.(T), nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		_, gen, _ := c.lookup(key)
		// La carga es compartida: no puede morir con el primer llamador.
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, gen, v)
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query cache: tipo inesperado para %q", key)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
