package dnload

import (
	"errors"
	"fmt"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/linkmap"
	"github.com/sliverarmory/dnload/memmod"
	"github.com/sliverarmory/dnload/symscan"
)

// DefaultCacheSize is the number of hash to address pairs a Resolver keeps.
const DefaultCacheSize = 256

type config struct {
	mem       io.ReaderAt
	platform  *linkmap.Platform
	locator   linkmap.Locator
	bounds    symscan.Bounds
	ifunc     symscan.IfuncCaller
	ifuncSet  bool
	log       *zap.SugaredLogger
	cacheSize int
}

// Option configures a Resolver.
type Option func(*config)

// WithMemory reads the process image from r instead of the current
// process. IFUNC resolvers are not called unless WithIfuncCaller is given.
func WithMemory(r io.ReaderAt) Option {
	return func(c *config) { c.mem = r }
}

// WithPlatform overrides the profile chosen from GOOS/GOARCH.
func WithPlatform(p linkmap.Platform) Option {
	return func(c *config) { c.platform = &p }
}

// WithLocator sets how the link map head is found.
func WithLocator(l linkmap.Locator) Option {
	return func(c *config) { c.locator = l }
}

// WithBounds sets how symbol tables are delimited.
func WithBounds(b symscan.Bounds) Option {
	return func(c *config) { c.bounds = b }
}

// WithIfuncCaller sets how IFUNC resolvers run. Nil makes IFUNC symbols an
// error.
func WithIfuncCaller(f symscan.IfuncCaller) Option {
	return func(c *config) { c.ifunc, c.ifuncSet = f, true }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *config) { c.log = log }
}

// WithCacheSize sets the resolved address cache size; 0 disables it.
func WithCacheSize(n int) Option {
	return func(c *config) { c.cacheSize = n }
}

// Resolver binds slots by hash. It is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	closed  bool
	closer  io.Closer
	view    elfmem.View
	locator linkmap.Locator
	walker  linkmap.Walker
	scanner symscan.Scanner
	cache   *lru.Cache[uint32, uintptr]
	log     *zap.SugaredLogger
}

// NewResolver returns a resolver for the current process unless WithMemory
// points it elsewhere. For the current process the link map is found
// through the auxiliary vector; for other memory the executable is
// expected at the platform's fixed base.
func NewResolver(opts ...Option) (*Resolver, error) {
	c := config{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&c)
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}

	var p linkmap.Platform
	if c.platform != nil {
		p = *c.platform
	} else {
		cur, err := linkmap.Current()
		if err != nil {
			return nil, fmt.Errorf("dnload: %w", err)
		}
		p = cur
	}

	r := &Resolver{log: c.log}
	self := c.mem == nil
	if self {
		mem, err := elfmem.OpenSelf()
		if err != nil {
			return nil, fmt.Errorf("dnload: open process memory: %w", err)
		}
		c.mem, r.closer = mem, mem
		if !c.ifuncSet {
			c.ifunc = symscan.IfuncFunc(callIfunc)
		}
	}

	view, err := p.View(c.mem)
	if err != nil {
		r.closeMemory()
		return nil, fmt.Errorf("dnload: %w", err)
	}
	r.view = view

	r.locator = c.locator
	if r.locator == nil {
		if self {
			auxv, err := linkmap.SelfAuxv()
			if err != nil {
				r.closeMemory()
				return nil, fmt.Errorf("dnload: %w", err)
			}
			r.locator = auxv
		} else {
			r.locator = linkmap.FixedAddress{Base: p.FixedBase, Machine: p.Machine}
		}
	}
	if c.bounds == nil {
		c.bounds = symscan.Safe{}
	}

	r.walker = linkmap.Walker{View: view, Platform: p}
	r.scanner = symscan.Scanner{View: view, Platform: p, Bounds: c.bounds, Ifunc: c.ifunc}
	if c.cacheSize > 0 {
		cache, err := lru.New[uint32, uintptr](c.cacheSize)
		if err != nil {
			r.closeMemory()
			return nil, fmt.Errorf("dnload: create cache: %w", err)
		}
		r.cache = cache
	}

	c.log.Debugw("resolver ready", "platform", p.String(), "locator", fmt.Sprintf("%T", r.locator),
		"bounds", fmt.Sprintf("%T", c.bounds), "cache", c.cacheSize)
	return r, nil
}

func callIfunc(resolver uint64) (uint64, error) {
	addr, err := memmod.Call0(uintptr(resolver))
	return uint64(addr), err
}

// Resolve returns the address of the first definition of hash in link map
// order, skipping the platform's leading entries. Objects whose metadata
// cannot be read are logged and passed over; their errors are joined into
// the ErrSymbolNotFound returned when no other object defines the hash.
func (r *Resolver) Resolve(hash uint32) (uintptr, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrResolverClosed
	}
	if r.cache != nil {
		if addr, ok := r.cache.Get(hash); ok {
			return addr, nil
		}
	}

	head, err := r.locator.Head(r.view)
	if err != nil {
		return 0, fmt.Errorf("dnload: locate link map: %w", err)
	}
	objs, walkErr := r.walker.Objects(head)

	var errs []error
	for _, obj := range objs {
		addr, err := r.scanner.Find(obj, hash)
		switch {
		case err == nil:
			r.log.Debugw("resolved symbol", "hash", fmt.Sprintf("0x%08x", hash),
				"object", r.objectName(obj), "addr", fmt.Sprintf("0x%x", addr))
			if r.cache != nil {
				r.cache.Add(hash, uintptr(addr))
			}
			return uintptr(addr), nil
		case errors.Is(err, ErrSymbolNotFound):
		case errors.Is(err, ErrUnsupportedPlatform):
			return 0, err
		default:
			r.log.Debugw("skipping object", "object", r.objectName(obj), "error", err)
			errs = append(errs, err)
		}
	}
	if walkErr != nil {
		r.log.Warnw("link map walk stopped early", "error", walkErr)
		errs = append(errs, walkErr)
	}
	return 0, fmt.Errorf("dnload: resolve 0x%08x: %w", hash, errors.Join(append([]error{ErrSymbolNotFound}, errs...)...))
}

func (r *Resolver) objectName(o linkmap.Object) string {
	name, err := r.walker.Name(o)
	if err != nil || name == "" {
		return fmt.Sprintf("0x%x", o.Addr)
	}
	return name
}

// Bind implements Binder by hash; the slot name is never consulted.
func (r *Resolver) Bind(s Slot) (uintptr, error) {
	return r.Resolve(s.Hash)
}

// Objects lists the link map entries a lookup searches, by name.
func (r *Resolver) Objects() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrResolverClosed
	}
	head, err := r.locator.Head(r.view)
	if err != nil {
		return nil, fmt.Errorf("dnload: locate link map: %w", err)
	}
	objs, err := r.walker.Objects(head)
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = r.objectName(o)
	}
	return names, err
}

// Symbols calls fn for every defined symbol of every searched object.
func (r *Resolver) Symbols(fn func(object string, sym symscan.Symbol) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrResolverClosed
	}
	head, err := r.locator.Head(r.view)
	if err != nil {
		return fmt.Errorf("dnload: locate link map: %w", err)
	}
	objs, walkErr := r.walker.Objects(head)
	var errs []error
	for _, obj := range objs {
		name := r.objectName(obj)
		err := r.scanner.Symbols(obj, func(sym symscan.Symbol) error { return fn(name, sym) })
		if err != nil {
			if !errors.Is(err, ErrMalformedDynamicSection) {
				return err
			}
			r.log.Debugw("skipping object", "object", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(append(errs, walkErr)...)
}

func (r *Resolver) closeMemory() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Close releases the process memory handle the resolver opened itself.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.cache != nil {
		r.cache.Purge()
	}
	return r.closeMemory()
}
