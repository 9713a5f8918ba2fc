package trigger

// Compiled is the lookup structure built from a guild's record list.
// Exact records are indexed by trigger; contains records keep list order.
type Compiled struct {
	Exact   map[string]Record
	Partial []Record
}

// Compile partitions records by match type, skipping records that are not
// Usable. It returns nil when nothing is left, which callers treat as
// "nothing to match against".
func Compile(records []Record) *Compiled {
	if len(records) == 0 {
		return nil
	}

	c := &Compiled{
		Exact:   make(map[string]Record, len(records)),
		Partial: make([]Record, 0, len(records)),
	}
	for _, r := range records {
		if !r.Usable() {
			continue
		}
		if r.MatchType == MatchExact {
			c.Exact[r.Trigger] = r
			continue
		}
		c.Partial = append(c.Partial, r)
	}
	if c.Len() == 0 {
		return nil
	}
	return c
}

// Len is the number of distinct records held.
func (c *Compiled) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Exact) + len(c.Partial)
}
