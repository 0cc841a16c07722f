package geocache

// Tiered composes a fast bounded tier over a durable one. Reads check the
// fast tier first and promote durable hits; writes go to both.
type Tiered struct {
	fast    Store
	durable Store
}

// NewTiered builds a tiered store. Either tier may be nil, in which case the
// other is used alone.
func NewTiered(fast, durable Store) *Tiered {
	return &Tiered{fast: fast, durable: durable}
}

func (t *Tiered) Get(key string) (Entry, bool, error) {
	if t.fast != nil {
		if e, ok, err := t.fast.Get(key); err != nil {
			return Entry{}, false, err
		} else if ok {
			return e, true, nil
		}
	}
	if t.durable == nil {
		return Entry{}, false, nil
	}
	e, ok, err := t.durable.Get(key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if t.fast != nil {
		if err := t.fast.Set(key, e); err != nil {
			return Entry{}, false, err
		}
	}
	return e, true, nil
}

func (t *Tiered) Set(key string, e Entry) error {
	if t.fast != nil {
		if err := t.fast.Set(key, e); err != nil {
			return err
		}
	}
	if t.durable != nil {
		return t.durable.Set(key, e)
	}
	return nil
}
