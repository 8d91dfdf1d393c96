package handshake

import (
	"context"
	"sync"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

// Status del handshake visto por el cliente.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result es el desenlace de un Connect.
type Result struct {
	Platform    configtree.Platform
	Stage       configtree.Stage
	ProviderKey string
	Status      Status
	Token       string
}

// Pending es un futuro que se resuelve una sola vez, por éxito, fallo o cancelación.
// Al resolverse siempre desregistra su listener.
type Pending struct {
	id       uint64
	platform configtree.Platform
	stage    configtree.Stage
	key      string
	owner    *Coordinator

	once sync.Once
	done chan struct{}
	res  Result
	err  error

	mu       sync.Mutex
	unsub    func()
	released bool
}

func newPending(id uint64, p configtree.Platform, stage configtree.Stage, key string, owner *Coordinator) *Pending {
	return &Pending{
		id:       id,
		platform: p,
		stage:    stage,
		key:      key,
		owner:    owner,
		done:     make(chan struct{}),
		res:      Result{Platform: p, Stage: stage, ProviderKey: key, Status: StatusPending},
	}
}

// handle es el listener registrado en el bus.
func (p *Pending) handle(m events.Message) {
	if tokenstore.NormalizeKey(m.Platform) != p.key {
		return
	}
	switch m.Type {
	case events.TypeAuthSuccess:
		p.once.Do(func() {
			res := Result{Platform: p.platform, Stage: p.stage, ProviderKey: p.key, Status: StatusConnected, Token: m.Token}
			err := p.owner.complete(p, m.Token)
			if err != nil {
				res.Status = StatusFailed
			}
			p.settle(res, err)
		})
	case events.TypeAuthFailure:
		p.finish(Result{Platform: p.platform, Stage: p.stage, ProviderKey: p.key, Status: StatusFailed},
			&AuthenticationFailure{Platform: p.key})
	}
}

// finish resuelve sin efectos sobre TokenStore/ConfigTree.
func (p *Pending) finish(res Result, err error) {
	p.once.Do(func() { p.settle(res, err) })
}

// settle se llama exactamente una vez, dentro de once.
func (p *Pending) settle(res Result, err error) {
	p.res, p.err = res, err
	p.release()
	p.owner.forget(p.id)
	close(p.done)

	log := logger.L().With(logger.Component("handshake"), logger.Platform(string(p.platform)), logger.Stage(string(p.stage)))
	if err != nil {
		log.Warn("handshake finished", logger.String("status", string(res.Status)), logger.Err(err))
		return
	}
	log.Info("handshake finished", logger.String("status", string(res.Status)), logger.String("token", maskedToken(res.Token)))
}

func (p *Pending) setUnsubscribe(fn func()) {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		fn()
		return
	}
	p.unsub = fn
	p.mu.Unlock()
}

func (p *Pending) release() {
	p.mu.Lock()
	p.released = true
	fn := p.unsub
	p.unsub = nil
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Done se cierra cuando el handshake se resolvió.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait bloquea hasta la resolución o hasta que ctx termine. Si ctx termina primero
// el listener sigue registrado; usar Cancel para liberarlo.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return Result{Platform: p.platform, Stage: p.stage, ProviderKey: p.key, Status: StatusPending}, ctx.Err()
	}
}

// Cancel resuelve el handshake como cancelado y desregistra el listener.
func (p *Pending) Cancel() {
	p.finish(Result{Platform: p.platform, Stage: p.stage, ProviderKey: p.key, Status: StatusCancelled}, ErrCancelled)
}
