package cache

// Null caches nothing and counts nothing. It serves stores configured with
// a zero byte budget, where every read must reach the backing store.
type Null struct{}

var _ Cache = Null{}

// NewNull returns the no-op cache.
func NewNull() Null { return Null{} }

func (Null) Get(string) ([]byte, bool) { return nil, false }
func (Null) Put(string, []byte)        {}
func (Null) Remove(string) bool        { return false }
func (Null) Contains(string) bool      { return false }
func (Null) Clear()                    {}
func (Null) SizeBytes() int64          { return 0 }
func (Null) MaxBytes() int64           { return 0 }
func (Null) Stats() Stats              { return Stats{} }
