package datacache

import "sync"

// Cache de fotos por clave con suscripciones explicitas. Reemplaza el
// viejo mapa global de listeners con conteo manual de referencias:
// cada suscriptor recibe un manejador propio y lo cierra cuando termina.

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	value any
	valid bool
	subs  map[*Subscription]struct{}
}

// Subscription es el manejador descartable de un suscriptor.
type Subscription struct {
	cache  *Cache
	key    string
	notify func(any)
	closed bool
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Get devuelve la ultima foto publicada para la clave.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.valid {
		return nil, false
	}
	return e.value, true
}

// Publish guarda la foto y avisa a todos los suscriptores de la clave.
func (c *Cache) Publish(key string, value any) {
	c.mu.Lock()
	e := c.ensure(key)
	e.value = value
	e.valid = true
	notify := make([]func(any), 0, len(e.subs))
	for sub := range e.subs {
		if sub.notify != nil {
			notify = append(notify, sub.notify)
		}
	}
	c.mu.Unlock()

	// los avisos salen fuera del lock
	for _, fn := range notify {
		fn(value)
	}
}

// Invalidate descarta la foto sin tocar las suscripciones.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = nil
		e.valid = false
	}
}

// Subscribe registra un suscriptor para la clave. notify puede ser nil
// si solo interesa mantener viva la entrada.
func (c *Cache) Subscribe(key string, notify func(any)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{cache: c, key: key, notify: notify}
	c.ensure(key).subs[sub] = struct{}{}
	return sub
}

// Close da de baja la suscripcion. Con la ultima baja la entrada
// se desarma entera, asi el cache no retiene fotos sin duenio.
func (s *Subscription) Close() {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	e, ok := c.entries[s.key]
	if !ok {
		return
	}
	delete(e.subs, s)
	if len(e.subs) == 0 {
		delete(c.entries, s.key)
	}
}

func (c *Cache) ensure(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[*Subscription]struct{})}
		c.entries[key] = e
	}
	return e
}
