package ecs

import (
	"cmp"
	"reflect"
	"slices"
	"sync"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// Storage is the entity store. It owns every component column and hands out
// views over them. The entity set is fixed once the storage is sealed.
type Storage struct {
	// archetypes is indexed by archetype id, which is the creation order.
	archetypes  []*archetype
	bySignature map[string]*archetype
	registry    *ComponentRegistry
	singletons  map[reflect.Type]*singletonEntry
	sealed      bool

	locksMu sync.Mutex
	locks   *intmap.Map[ComponentKind, *sync.RWMutex]
}

type singletonEntry struct {
	value   reflect.Value
	dataPtr unsafe.Pointer
}

// StorageStats summarizes the contents of a Storage.
type StorageStats struct {
	ArchetypeCount     int
	TotalEntityCount   int
	SingletonCount     int
	ArchetypeBreakdown []ArchetypeStats
	SingletonTypes     []string
}

// ArchetypeStats describes a single archetype.
type ArchetypeStats struct {
	ID             uint32
	ComponentTypes []string
	EntityCount    int
}

func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		bySignature: make(map[string]*archetype),
		registry:    registry,
		singletons:  make(map[reflect.Type]*singletonEntry),
		locks:       intmap.New[ComponentKind, *sync.RWMutex](len(registry.types)),
	}
}

// Registry returns the component registry backing this storage.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Spawn creates an entity holding components, given as values or pointers.
// Each component kind may appear once. Panics once the storage is sealed.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}
	if s.sealed {
		panic("cannot spawn entity: storage is sealed")
	}

	type entry struct {
		kind  ComponentKind
		value any
	}
	entries := make([]entry, len(components))
	for i, c := range components {
		entries[i] = entry{kind: s.registry.mustKind(c), value: c}
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.kind, b.kind) })

	kinds := make([]ComponentKind, len(entries))
	values := make([]any, len(entries))
	for i, e := range entries {
		if i > 0 && e.kind == kinds[i-1] {
			panic("component " + s.registry.Type(e.kind).String() + " given twice")
		}
		kinds[i], values[i] = e.kind, e.value
	}

	key := signature(kinds)
	arch, ok := s.bySignature[key]
	if !ok {
		arch = newArchetype(uint32(len(s.archetypes)), kinds, s.registry)
		s.archetypes = append(s.archetypes, arch)
		s.bySignature[key] = arch
	}
	return NewEntityId(arch.id, arch.spawn(values))
}

// Seal freezes the entity set. After sealing, Spawn panics and the archetype
// list may be read from several goroutines without further synchronization.
func (s *Storage) Seal() {
	s.sealed = true
}

func (s *Storage) Sealed() bool {
	return s.sealed
}

// Len returns the number of entities.
func (s *Storage) Len() int {
	total := 0
	for _, arch := range s.archetypes {
		total += arch.len()
	}
	return total
}

// locate returns the archetype and column index of id, or nil.
func (s *Storage) locate(id EntityId) (*archetype, int) {
	archId := int(id.ArchetypeId())
	if archId >= len(s.archetypes) {
		return nil, 0
	}
	arch := s.archetypes[archId]
	index := int(id.Index())
	if index >= arch.len() {
		return nil, 0
	}
	return arch, index
}

// GetComponent returns a pointer to the component of type compType held by id,
// or nil.
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	arch, index := s.locate(id)
	if arch == nil {
		return nil
	}
	col := arch.column(compType)
	if col == nil {
		return nil
	}
	return col.get(index)
}

func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	arch, _ := s.locate(id)
	return arch != nil && arch.column(compType) != nil
}

// Acquire takes the component locks described by access and returns the function
// releasing them. Read kinds are locked shared and write kinds exclusively, so any
// number of readers may hold a kind while a writer excludes everyone else.
// Locks are always taken in ascending kind order.
func (s *Storage) Acquire(access *Access) (release func()) {
	type held struct {
		lock  *sync.RWMutex
		write bool
	}

	kinds := access.kinds(s.registry)
	locks := make([]held, 0, len(kinds))
	for _, k := range kinds {
		lock := s.lockFor(k.kind)
		if k.write {
			lock.Lock()
		} else {
			lock.RLock()
		}
		locks = append(locks, held{lock: lock, write: k.write})
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			if locks[i].write {
				locks[i].lock.Unlock()
			} else {
				locks[i].lock.RUnlock()
			}
		}
	}
}

func (s *Storage) lockFor(kind ComponentKind) *sync.RWMutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks.Get(kind)
	if !ok {
		lock = &sync.RWMutex{}
		s.locks.Put(kind, lock)
	}
	return lock
}

// AddSingleton stores value as the singleton of its type. An existing singleton is
// overwritten in place, so accessors created earlier observe the new value.
func (s *Storage) AddSingleton(value any) {
	t := reflect.TypeOf(value)
	if t == nil {
		panic("cannot add nil singleton")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		value = reflect.ValueOf(value).Elem().Interface()
	}

	if entry, ok := s.singletons[t]; ok {
		entry.value.Elem().Set(reflect.ValueOf(value))
		return
	}

	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(value))
	s.singletons[t] = &singletonEntry{
		value:   ptr,
		dataPtr: ptr.UnsafePointer(),
	}
}

// ReadSingleton points *target at the singleton of type T, where target is a **T.
// Returns false if no singleton of that type exists.
func (s *Storage) ReadSingleton(target any) bool {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Ptr {
		panic("ReadSingleton target must be a pointer to a pointer")
	}

	t := rv.Elem().Type().Elem()
	entry := s.getSingletonEntry(t)
	if entry == nil {
		return false
	}
	rv.Elem().Set(reflect.NewAt(t, entry.dataPtr))
	return true
}

func (s *Storage) getSingletonEntry(t reflect.Type) *singletonEntry {
	return s.singletons[t]
}

// CollectStats gathers archetype, entity and singleton counts
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		ArchetypeCount: len(s.archetypes),
		SingletonCount: len(s.singletons),
	}

	for _, arch := range s.archetypes {
		names := make([]string, 0, len(arch.types))
		for _, t := range arch.types {
			names = append(names, t.String())
		}
		count := arch.len()
		stats.TotalEntityCount += count
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			ID:             arch.id,
			ComponentTypes: names,
			EntityCount:    count,
		})
	}

	for t := range s.singletons {
		stats.SingletonTypes = append(stats.SingletonTypes, t.String())
	}
	slices.Sort(stats.SingletonTypes)

	return stats
}

// ComponentReader looks components up by entity. *Storage implements it.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the T held by entityId, or nil.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	v, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return v
}
