package dedup

import (
	"sync"
	"time"
)

// Supresion de eventos repetidos: un evento por (tipo, entidad)
// dentro de la ventana de enfriamiento. Antes esto vivia como
// timestamps sueltos en el storage del telefono.

type Key struct {
	EventType string
	EntityID  string
}

type Deduper struct {
	mu       sync.Mutex
	cooldown time.Duration
	fired    map[Key]time.Time
	now      func() time.Time
}

// NewDeduper crea el supresor. now es inyectable para los tests;
// con nil se usa time.Now.
func NewDeduper(cooldown time.Duration, now func() time.Time) *Deduper {
	if now == nil {
		now = time.Now
	}
	return &Deduper{
		cooldown: cooldown,
		fired:    make(map[Key]time.Time),
		now:      now,
	}
}

// ShouldFire responde si el evento puede dispararse ahora.
// No marca: el que dispara confirma con MarkFired.
func (d *Deduper) ShouldFire(key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, ok := d.fired[key]
	if !ok {
		return true
	}
	return d.now().Sub(last) >= d.cooldown
}

// MarkFired registra el disparo del evento.
func (d *Deduper) MarkFired(key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fired[key] = d.now()
}

// Forget borra el registro de la entidad, por ejemplo cuando
// el pedido sale del estado que generaba avisos.
func (d *Deduper) Forget(key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.fired, key)
}
